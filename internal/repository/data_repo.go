package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forest_monitor/internal/models"
)

// DataSQLite keeps one row per sensor id holding its last raw payload.
// Ids are not checked against the channel registry.
type DataSQLite struct {
	db *sql.DB
}

func NewDataSQLite(db *sql.DB) *DataSQLite { return &DataSQLite{db: db} }

var _ DataRepo = (*DataSQLite)(nil)

const (
	upsertDataSQL = `
		INSERT INTO sensor_data (sensor_id, payload, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(sensor_id) DO UPDATE SET
			payload=excluded.payload,
			last_updated=excluded.last_updated
	`

	selectDataSQL = `SELECT sensor_id, payload, last_updated FROM sensor_data WHERE sensor_id = ?`
	deleteDataSQL = `DELETE FROM sensor_data WHERE sensor_id = ?`
)

func marshalPayload(p map[string]any) (string, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalPayload(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var p map[string]any
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Put upserts the payload; LastUpdated is stored as UTC and defaults to now.
func (r *DataSQLite) Put(ctx context.Context, d models.SensorData) error {
	payload, err := marshalPayload(d.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %q: %w", d.SensorID, err)
	}

	ts := d.LastUpdated
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertDataSQL, d.SensorID, payload, ts)
	return err
}

// Get returns the stored payload, or a zero SensorData when the id has none.
func (r *DataSQLite) Get(ctx context.Context, id string) (models.SensorData, error) {
	var (
		d          models.SensorData
		payloadStr string
	)
	err := r.db.QueryRowContext(ctx, selectDataSQL, id).Scan(&d.SensorID, &payloadStr, &d.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SensorData{}, nil
		}
		return models.SensorData{}, err
	}

	p, err := unmarshalPayload(payloadStr)
	if err != nil {
		return models.SensorData{}, fmt.Errorf("decode payload for %q: %w", id, err)
	}
	d.Payload = p
	d.LastUpdated = d.LastUpdated.UTC()
	return d, nil
}

func (r *DataSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteDataSQL, id); err != nil {
		return fmt.Errorf("delete sensor data %q: %w", id, err)
	}
	return nil
}
