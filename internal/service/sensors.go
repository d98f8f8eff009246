package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forest_monitor/internal/models"
	"forest_monitor/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptySensorName = errors.New("sensor name is required")
	ErrNoSensorData    = errors.New("no data stored for sensor")
	ErrEmptySensorID   = errors.New("sensor id is required")
)

// SensorService manages sensor descriptors and the raw payload store.
// The raw store accepts any id; it is independent of the registry.
type SensorService struct {
	sensors repository.SensorRepo
	data    repository.DataRepo
}

func NewSensorService(sensors repository.SensorRepo, data repository.DataRepo) *SensorService {
	return &SensorService{sensors: sensors, data: data}
}

func (s *SensorService) CreateSensor(ctx context.Context, name, description string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptySensorName
	}
	info := models.SensorInfo{
		ID:          uuid.NewString(),
		SensorName:  name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.sensors.Create(ctx, info); err != nil {
		return "", err
	}
	return info.ID, nil
}

func (s *SensorService) ListSensors(ctx context.Context) ([]models.SensorInfo, error) {
	return s.sensors.List(ctx)
}

// GetSensorData returns the last raw payload for id, or ErrNoSensorData.
func (s *SensorService) GetSensorData(ctx context.Context, id string) (models.SensorData, error) {
	d, err := s.data.Get(ctx, id)
	if err != nil {
		return models.SensorData{}, err
	}
	if d.SensorID == "" {
		return models.SensorData{}, ErrNoSensorData
	}
	return d, nil
}

// StoreRaw upserts payload as the latest raw data for id.
func (s *SensorService) StoreRaw(ctx context.Context, id string, payload map[string]any, now time.Time) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptySensorID
	}
	return s.data.Put(ctx, models.SensorData{SensorID: id, Payload: payload, LastUpdated: now.UTC()})
}

// DeleteSensor removes the descriptor and any raw data stored under id.
func (s *SensorService) DeleteSensor(ctx context.Context, id string) error {
	if err := s.sensors.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.data.Delete(ctx, id); err != nil {
		return fmt.Errorf("sensor %q deleted but raw data kept: %w", id, err)
	}
	return nil
}
