package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"energisense/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

// Ensure implementation of ReadingRepo interface at compile time.
var _ ReadingRepo = (*ReadingSQLite)(nil)

// Timestamps are stored as unix nanoseconds so ordering survives sub-second
// inserts; rowid breaks ties between equal timestamps.
const (
	insertReadingSQL = `INSERT INTO readings (id, sensor_id, value, type, ts) VALUES (?, ?, ?, ?, ?)`

	selectLatestReadingsSQL = `SELECT id, sensor_id, value, type, ts FROM readings ORDER BY ts DESC, rowid DESC LIMIT ?`
)

// Insert appends one reading.
func (r *ReadingSQLite) Insert(ctx context.Context, rd models.Reading) error {
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.ID,
		rd.SensorID,
		rd.Value,
		rd.Type,
		rd.Timestamp.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert reading %s: %w", rd.ID, err)
	}
	return nil
}

// LatestDesc returns up to limit readings ordered newest first.
func (r *ReadingSQLite) LatestDesc(ctx context.Context, limit int) ([]models.Reading, error) {
	rows, err := r.db.QueryContext(ctx, selectLatestReadingsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select latest readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.Reading, 0, limit)
	for rows.Next() {
		var (
			rd models.Reading
			ts int64
		)
		if err := rows.Scan(&rd.ID, &rd.SensorID, &rd.Value, &rd.Type, &ts); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		rd.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}
