package repository

import (
	"context"
	"database/sql"

	"forest_monitor/internal/models"
)

// Authorization stores operator accounts.
type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// SensorRepo stores sensor descriptors.
type SensorRepo interface {
	Create(ctx context.Context, s models.SensorInfo) error
	List(ctx context.Context) ([]models.SensorInfo, error)
	Delete(ctx context.Context, id string) error
}

// DataRepo stores the last raw payload per sensor id.
type DataRepo interface {
	Put(ctx context.Context, d models.SensorData) error
	Get(ctx context.Context, id string) (models.SensorData, error)
	Delete(ctx context.Context, id string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.SensorEvent) error
	List(ctx context.Context, q EventQuery) ([]models.SensorEvent, error)
}

type Repository struct {
	SensorRepo SensorRepo
	DataRepo   DataRepo
	EventRepo  EventRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SensorRepo: NewSensorSQLite(db),
		DataRepo:   NewDataSQLite(db),
		EventRepo:  NewEventSQLite(db),
		Auth:       NewOperatorSQLite(db),
	}
}
