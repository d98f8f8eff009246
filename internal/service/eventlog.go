package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forest_monitor/internal/models"
	"forest_monitor/internal/repository"
)

// LogFilter narrows the event log. Zero fields do not filter.
type LogFilter struct {
	From    time.Time // inclusive
	To      time.Time // inclusive
	Type    string    // ALERT, RECOVERED or RISK_CHANGE, any case
	Channel string    // channel wire name, e.g. Temperature
}

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	errInvalidEventType = errors.New("invalid event type: must be ALERT, RECOVERED or RISK_CHANGE")
	errInvalidChannel   = errors.New("invalid channel")
)

// IsInvalidFilter reports whether err came from filter validation.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, errInvalidTimeRange) ||
		errors.Is(err, errInvalidEventType) ||
		errors.Is(err, errInvalidChannel)
}

// toQuery validates f and converts it to UTC bounds and canonical names.
func (f LogFilter) toQuery() (repository.EventQuery, error) {
	q := repository.EventQuery{From: f.From, To: f.To}
	if !q.From.IsZero() {
		q.From = q.From.UTC()
	}
	if !q.To.IsZero() {
		q.To = q.To.UTC()
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return q, errInvalidTimeRange
	}

	switch typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ {
	case "", models.EventAlert, models.EventRecovered, models.EventRiskChange:
		q.Type = typ
	default:
		return q, errInvalidEventType
	}

	if name := strings.TrimSpace(f.Channel); name != "" {
		ch := models.Channel(name)
		if !ch.Valid() {
			return q, fmt.Errorf("%w %q", errInvalidChannel, name)
		}
		q.Channel = ch
	}
	return q, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SensorEvent, error) {
	q, err := f.toQuery()
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, q)
}
