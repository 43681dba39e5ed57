package store

import (
	"database/sql"
	"time"
)

// OccupancyRecord says whether a load point currently holds a bin and
// which step or operator last touched it.
type OccupancyRecord struct {
	Location   string    `json:"location"`
	FloorID    string    `json:"floor_id"`
	BinPresent bool      `json:"bin_present"`
	Source     string    `json:"source"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpsertOccupancy writes one occupancy row. The write is idempotent:
// setting the same presence twice is a no-op beyond the timestamp.
func (db *DB) UpsertOccupancy(rec *OccupancyRecord) error {
	if db.driver == "postgres" {
		_, err := db.Exec(db.Q(`INSERT INTO occupancy (location, floor_id, bin_present, source, updated_at)
			VALUES (?, ?, ?, ?, NOW())
			ON CONFLICT (location) DO UPDATE SET
				floor_id=EXCLUDED.floor_id, bin_present=EXCLUDED.bin_present,
				source=EXCLUDED.source, updated_at=EXCLUDED.updated_at`),
			rec.Location, rec.FloorID, rec.BinPresent, rec.Source)
		return err
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO occupancy (location, floor_id, bin_present, source) VALUES (?, ?, ?, ?)`,
		rec.Location, rec.FloorID, rec.BinPresent, rec.Source)
	return err
}

// GetOccupancy reads one location. Missing rows mean "no bin recorded".
func (db *DB) GetOccupancy(location string) (*OccupancyRecord, error) {
	row := db.QueryRow(db.Q(`SELECT location, floor_id, bin_present, source, updated_at FROM occupancy WHERE location=?`), location)
	var rec OccupancyRecord
	var updatedAt any
	err := row.Scan(&rec.Location, &rec.FloorID, &rec.BinPresent, &rec.Source, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func (db *DB) ListOccupancy() ([]*OccupancyRecord, error) {
	rows, err := db.Query(`SELECT location, floor_id, bin_present, source, updated_at FROM occupancy ORDER BY location`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []*OccupancyRecord
	for rows.Next() {
		var rec OccupancyRecord
		var updatedAt any
		if err := rows.Scan(&rec.Location, &rec.FloorID, &rec.BinPresent, &rec.Source, &updatedAt); err != nil {
			return nil, err
		}
		rec.UpdatedAt = parseTime(updatedAt)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
