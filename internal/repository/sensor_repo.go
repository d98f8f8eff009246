package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"forest_monitor/internal/models"

	"github.com/google/uuid"
)

type SensorSQLite struct {
	db *sql.DB
}

func NewSensorSQLite(db *sql.DB) *SensorSQLite { return &SensorSQLite{db: db} }

var _ SensorRepo = (*SensorSQLite)(nil)

const (
	insertSensorSQL = `INSERT INTO sensors (id, sensor_name, description, created_at) VALUES (?, ?, ?, ?)`
	selectSensorSQL = `SELECT id, sensor_name, description, created_at FROM sensors ORDER BY created_at ASC`
	deleteSensorSQL = `DELETE FROM sensors WHERE id = ?`
)

// Create inserts a descriptor. Missing ID and CreatedAt are filled in.
func (r *SensorSQLite) Create(ctx context.Context, s models.SensorInfo) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, insertSensorSQL, s.ID, s.SensorName, s.Description, s.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert sensor %q: %w", s.ID, err)
	}
	return nil
}

func (r *SensorSQLite) List(ctx context.Context) ([]models.SensorInfo, error) {
	rows, err := r.db.QueryContext(ctx, selectSensorSQL)
	if err != nil {
		return nil, fmt.Errorf("select sensors: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorInfo, 0, 16)
	for rows.Next() {
		var s models.SensorInfo
		if err := rows.Scan(&s.ID, &s.SensorName, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SensorSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteSensorSQL, id); err != nil {
		return fmt.Errorf("delete sensor %q: %w", id, err)
	}
	return nil
}
