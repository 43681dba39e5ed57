package store

import (
	"fmt"

	"haulcore/points"
)

// ListPoints loads every map point, the registry's boot-time source.
func (db *DB) ListPoints() ([]points.Point, error) {
	rows, err := db.Query(`SELECT floor_id, point_id, x, y, ori FROM points ORDER BY floor_id, point_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pts []points.Point
	for rows.Next() {
		var p points.Point
		if err := rows.Scan(&p.FloorID, &p.ID, &p.X, &p.Y, &p.Ori); err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, rows.Err()
}

// SyncPoints replaces a floor's point rows with a fresh map export.
func (db *DB) SyncPoints(floorID string, pts []points.Point) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("sync points: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(db.Q(`DELETE FROM points WHERE floor_id=?`), floorID); err != nil {
		return fmt.Errorf("sync points clear: %w", err)
	}
	for _, p := range pts {
		if _, err := tx.Exec(db.Q(`INSERT INTO points (floor_id, point_id, x, y, ori) VALUES (?, ?, ?, ?, ?)`),
			floorID, p.ID, p.X, p.Y, p.Ori); err != nil {
			return fmt.Errorf("sync points insert %q: %w", p.ID, err)
		}
	}
	return tx.Commit()
}
