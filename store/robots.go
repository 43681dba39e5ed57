package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Robot struct {
	ID        int64     `json:"id"`
	SN        string    `json:"sn"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	FloorID   string    `json:"floor_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const robotSelectCols = `id, sn, name, base_url, floor_id, enabled, created_at, updated_at`

func scanRobot(row interface{ Scan(...any) error }) (*Robot, error) {
	var r Robot
	var createdAt, updatedAt any
	err := row.Scan(&r.ID, &r.SN, &r.Name, &r.BaseURL, &r.FloorID, &r.Enabled, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

func (db *DB) CreateRobot(r *Robot) error {
	_, err := db.Exec(db.Q(`INSERT INTO robots (sn, name, base_url, floor_id, enabled) VALUES (?, ?, ?, ?, ?)`),
		r.SN, r.Name, r.BaseURL, r.FloorID, r.Enabled)
	if err != nil {
		return fmt.Errorf("create robot: %w", err)
	}
	return db.QueryRow(db.Q(`SELECT id FROM robots WHERE sn=?`), r.SN).Scan(&r.ID)
}

func (db *DB) GetRobotBySN(sn string) (*Robot, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM robots WHERE sn=?`, robotSelectCols)), sn)
	return scanRobot(row)
}

func (db *DB) ListRobots() ([]*Robot, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM robots ORDER BY sn`, robotSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var robots []*Robot
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, rows.Err()
}

func (db *DB) ListEnabledRobots() ([]*Robot, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM robots WHERE enabled=? ORDER BY sn`, robotSelectCols)), true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var robots []*Robot
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, rows.Err()
}

func (db *DB) SetRobotEnabled(sn string, enabled bool) error {
	res, err := db.Exec(db.Q(`UPDATE robots SET enabled=?, updated_at=datetime('now','localtime') WHERE sn=?`), enabled, sn)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
