package service

import (
	"context"
	"time"

	"forest_monitor/internal/logger"
	"forest_monitor/internal/models"
	"forest_monitor/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Ingestion is the write path for sensor updates.
type Ingestion interface {
	ApplyUpdate(ctx context.Context, sensorID string, value float64, now time.Time) (models.UpdateAck, error)
	ApplyRawUpdate(ctx context.Context, sensorID string, raw any, now time.Time) (models.UpdateAck, error)
}

// Monitoring exposes read-only views of state, history and risk.
type Monitoring interface {
	GetState(ctx context.Context) (models.LatestState, error)
	GetSnapshot(ctx context.Context) (models.DebugSnapshot, error)
	GetHistory(ctx context.Context, n int) ([]models.HistorySnapshot, error)
	GetRisk(ctx context.Context) (models.RiskStatus, error)
	Thresholds() []models.ThresholdRule
	Channels() []models.SensorBinding
}

// EventLog exposes the append-only event log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SensorEvent, error)
}

// Sensors manages descriptors and the raw payload store.
type Sensors interface {
	CreateSensor(ctx context.Context, name, description string) (string, error)
	ListSensors(ctx context.Context) ([]models.SensorInfo, error)
	GetSensorData(ctx context.Context, id string) (models.SensorData, error)
	StoreRaw(ctx context.Context, id string, payload map[string]any, now time.Time) error
	DeleteSensor(ctx context.Context, id string) error
}

// Service aggregates all sub-services.
type Service struct {
	Ingestion
	Monitoring
	EventLog
	Sensors
	Authorization
}

// Options configures NewService. Zero values select defaults.
type Options struct {
	Bindings      []models.SensorBinding
	Thresholds    []models.ThresholdRule
	HistorySize   int
	AdmitInterval time.Duration
	SigningKey    string
	TokenTTL      time.Duration
	Observer      Observer
	Notifier      AlertNotifier
	Logger        *logger.Logger
}

// NewService wires the repository layer and the in-memory core into concrete services.
func NewService(repos *repository.Repository, opts Options) (*Service, error) {
	registry, err := NewRegistry(opts.Bindings)
	if err != nil {
		return nil, err
	}
	eval := NewEvaluator(opts.Thresholds)
	ingest := NewIngestionService(registry, eval, NewHistoryBuffer(opts.HistorySize, opts.AdmitInterval), IngestionOptions{
		Events:   repos.EventRepo,
		Observer: opts.Observer,
		Notifier: opts.Notifier,
		Logger:   opts.Logger.Named("ingestion"),
	})
	return &Service{
		Ingestion:     ingest,
		Monitoring:    NewMonitoringService(ingest, eval, registry),
		EventLog:      NewEventLogService(repos.EventRepo),
		Sensors:       NewSensorService(repos.SensorRepo, repos.DataRepo),
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}, nil
}
