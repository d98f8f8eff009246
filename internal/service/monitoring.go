package service

import (
	"context"

	"forest_monitor/internal/models"
)

// debugHistoryLen is how many recent snapshots the debug view carries.
const debugHistoryLen = 5

// MonitoringService is the read-only view over the ingestion state.
type MonitoringService struct {
	ingest   *IngestionService
	eval     *Evaluator
	registry *Registry
}

func NewMonitoringService(ingest *IngestionService, eval *Evaluator, registry *Registry) *MonitoringService {
	return &MonitoringService{ingest: ingest, eval: eval, registry: registry}
}

// GetState returns a copy of the latest reading per channel.
func (s *MonitoringService) GetState(ctx context.Context) (models.LatestState, error) {
	if err := ctx.Err(); err != nil {
		return models.LatestState{}, err
	}
	return s.ingest.Read(0).State, nil
}

// GetSnapshot returns latest data, the history size, the last five snapshots
// and the aggregate warning count, all taken from one consistent read.
func (s *MonitoringService) GetSnapshot(ctx context.Context) (models.DebugSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.DebugSnapshot{}, err
	}
	v := s.ingest.Read(debugHistoryLen)
	return models.DebugSnapshot{
		LatestData:   v.State,
		HistoryCount: v.Total,
		History:      v.History,
		Warnings:     s.eval.AggregateWarningCount(v.State),
	}, nil
}

// GetHistory returns up to n most recent snapshots, oldest first. n <= 0 returns all.
func (s *MonitoringService) GetHistory(ctx context.Context, n int) ([]models.HistorySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = -1
	}
	return s.ingest.Read(n).History, nil
}

func (s *MonitoringService) GetRisk(ctx context.Context) (models.RiskStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.RiskStatus{}, err
	}
	st := s.ingest.Read(0).State
	p := st.Fire.Probability
	return models.RiskStatus{
		Level:           ClassifyRisk(p),
		Probability:     p,
		CameraConnected: p.IsKnown(),
		Warnings:        s.eval.Warnings(st),
		WarningCount:    s.eval.AggregateWarningCount(st),
	}, nil
}

func (s *MonitoringService) Thresholds() []models.ThresholdRule {
	return s.eval.Rules()
}

func (s *MonitoringService) Channels() []models.SensorBinding {
	return s.registry.Bindings()
}
