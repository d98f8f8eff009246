package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"forest_monitor/internal/logger"
	"forest_monitor/internal/models"
	"forest_monitor/internal/repository"
)

// Update results reported to the Observer.
const (
	ResultApplied       = "applied"
	ResultUnknownSensor = "unknown_sensor"
	ResultInvalid       = "invalid"
)

// Lowest physically possible temperature in °C.
const absoluteZeroC = -273.15

// Observer receives ingestion metrics. Implementations must not block.
type Observer interface {
	UpdateRejected(result string)
	UpdateApplied(ack models.UpdateAck, value float64)
}

// AlertNotifier delivers operator alerts. Notify must not block.
type AlertNotifier interface {
	Notify(a models.Alert)
}

// IngestionOptions carries the optional collaborators of IngestionService.
// Any of them may be nil.
type IngestionOptions struct {
	Events   repository.EventRepo
	Observer Observer
	Notifier AlertNotifier
	Logger   *logger.Logger
}

// IngestionService is the single write path into the latest state and the history buffer.
type IngestionService struct {
	registry *Registry
	eval     *Evaluator

	// mu guards state, history, breached, risk and seq. Set, evaluate, snapshot
	// and admit happen under one hold so readers never see a half-applied update.
	mu       sync.Mutex
	state    *StateStore
	history  *HistoryBuffer
	breached map[models.Channel]bool
	risk     models.RiskLevel
	seq      uint64

	// Side effects of an update run in seq order, outside mu.
	turnMu   sync.Mutex
	turn     *sync.Cond
	nextTurn uint64

	events   repository.EventRepo
	observer Observer
	notifier AlertNotifier
	log      *logger.Logger
}

func NewIngestionService(registry *Registry, eval *Evaluator, history *HistoryBuffer, opts IngestionOptions) *IngestionService {
	s := &IngestionService{
		registry: registry,
		eval:     eval,
		state:    NewStateStore(time.Now().UTC()),
		history:  history,
		breached: make(map[models.Channel]bool, len(models.Channels)),
		risk:     models.RiskUnknown,
		events:   opts.Events,
		observer: opts.Observer,
		notifier: opts.Notifier,
		log:      opts.Logger,
	}
	s.turn = sync.NewCond(&s.turnMu)
	return s
}

// ApplyUpdate resolves sensorID, stores value as the channel's latest reading,
// checks its threshold and offers a snapshot to the history buffer.
// An unknown id or invalid value leaves state and history untouched.
func (s *IngestionService) ApplyUpdate(ctx context.Context, sensorID string, value float64, now time.Time) (models.UpdateAck, error) {
	ch, err := s.registry.Resolve(sensorID)
	if err != nil {
		s.rejected(ResultUnknownSensor, sensorID, err)
		return models.UpdateAck{}, err
	}
	if err := ValidateValue(ch, value); err != nil {
		s.rejected(ResultInvalid, sensorID, err)
		return models.UpdateAck{}, err
	}

	s.mu.Lock()
	s.state.Set(ch, value, now)
	var (
		breached bool
		msg      string
	)
	if ch != models.ChannelFireProbability {
		breached, msg = s.eval.CheckThreshold(ch, value)
	}
	snap := s.state.Get()
	admitted := s.history.MaybeAdmit(ch, snap, now)
	histLen := s.history.Len()
	risk := ClassifyRisk(snap.Fire.Probability)
	warnings := s.eval.AggregateWarningCount(snap)
	wasBreached := s.breached[ch]
	s.breached[ch] = breached
	prevRisk := s.risk
	s.risk = risk
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	ack := models.UpdateAck{
		SensorID:     sensorID,
		Channel:      ch,
		Breached:     breached,
		Message:      msg,
		Admitted:     admitted,
		HistoryLen:   histLen,
		Risk:         risk,
		WarningCount: warnings,
	}
	s.awaitTurn(seq)
	s.applied(ctx, ack, value, wasBreached, prevRisk, now)
	s.endTurn()
	return ack, nil
}

// awaitTurn blocks until every update sequenced before seq has emitted its
// events, so the event log and alerts follow the order state changed in.
func (s *IngestionService) awaitTurn(seq uint64) {
	s.turnMu.Lock()
	for s.nextTurn != seq {
		s.turn.Wait()
	}
	s.turnMu.Unlock()
}

func (s *IngestionService) endTurn() {
	s.turnMu.Lock()
	s.nextTurn++
	s.turnMu.Unlock()
	s.turn.Broadcast()
}

// ApplyRawUpdate is ApplyUpdate for an undecoded value. The sensor id is
// resolved before the value is parsed, so an unknown id always wins.
func (s *IngestionService) ApplyRawUpdate(ctx context.Context, sensorID string, raw any, now time.Time) (models.UpdateAck, error) {
	ch, err := s.registry.Resolve(sensorID)
	if err != nil {
		s.rejected(ResultUnknownSensor, sensorID, err)
		return models.UpdateAck{}, err
	}
	value, err := ParseRawValue(raw)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Channel = ch
		}
		s.rejected(ResultInvalid, sensorID, err)
		return models.UpdateAck{}, err
	}
	return s.ApplyUpdate(ctx, sensorID, value, now)
}

// View is a consistent copy of the latest state and the most recent history.
type View struct {
	State    models.LatestState
	History  []models.HistorySnapshot
	Total    int
	Capacity int
}

// Read copies the state and up to historyN most recent snapshots under the
// same lock the write path holds. historyN < 0 returns the whole buffer.
func (s *IngestionService) Read(historyN int) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:    s.state.Get(),
		Total:    s.history.Len(),
		Capacity: s.history.Capacity(),
	}
	if historyN < 0 {
		v.History = s.history.All()
	} else {
		v.History = s.history.Last(historyN)
	}
	return v
}

func (s *IngestionService) rejected(result, sensorID string, err error) {
	if s.log != nil {
		s.log.Warnw("update_rejected", "sensor_id", sensorID, "result", result, "error", err)
	}
	if s.observer != nil {
		s.observer.UpdateRejected(result)
	}
}

// applied runs after the lock is released. Nothing here can reject the update.
func (s *IngestionService) applied(ctx context.Context, ack models.UpdateAck, value float64, wasBreached bool, prevRisk models.RiskLevel, now time.Time) {
	if s.log != nil {
		s.log.Debugw("update_applied",
			"sensor_id", ack.SensorID,
			"channel", ack.Channel,
			"value", value,
			"admitted", ack.Admitted,
			"history_len", ack.HistoryLen,
		)
		if ack.Breached {
			s.log.Warnw("threshold_breach", "channel", ack.Channel, "value", value, "rule", ack.Message)
		}
	}
	if s.observer != nil {
		s.observer.UpdateApplied(ack, value)
	}

	switch {
	case ack.Breached && !wasBreached:
		s.record(ctx, models.SensorEvent{
			OccurredAt:  now,
			Type:        models.EventAlert,
			Channel:     ack.Channel,
			Description: fmt.Sprintf("%s %s (value %g)", ack.Channel, ack.Message, value),
			Metadata:    map[string]any{"sensor_id": ack.SensorID, "value": value},
		})
		s.notify(models.Alert{
			Key:      "threshold:" + string(ack.Channel),
			Title:    fmt.Sprintf("%s threshold breached", ack.Channel),
			Text:     fmt.Sprintf("%s reads %g, rule %s", ack.Channel, value, ack.Message),
			Channel:  ack.Channel,
			SensorID: ack.SensorID,
			Value:    value,
			Risk:     ack.Risk,
			At:       now,
		})
	case !ack.Breached && wasBreached:
		s.record(ctx, models.SensorEvent{
			OccurredAt:  now,
			Type:        models.EventRecovered,
			Channel:     ack.Channel,
			Description: fmt.Sprintf("%s back within limits (value %g)", ack.Channel, value),
			Metadata:    map[string]any{"sensor_id": ack.SensorID, "value": value},
		})
	}

	if ack.Risk != prevRisk {
		if s.log != nil {
			s.log.Infow("risk_changed", "from", prevRisk.String(), "to", ack.Risk.String(), "fire_probability", value)
		}
		s.record(ctx, models.SensorEvent{
			OccurredAt:  now,
			Type:        models.EventRiskChange,
			Channel:     models.ChannelFireProbability,
			Description: fmt.Sprintf("fire risk %s -> %s", prevRisk, ack.Risk),
			Metadata:    map[string]any{"from": prevRisk.String(), "to": ack.Risk.String(), "fire_probability": value},
		})
		if ack.Risk.AtLeast(models.RiskMedium) && ack.Risk > prevRisk {
			s.notify(models.Alert{
				Key:      "fire_risk",
				Title:    "Fire risk " + ack.Risk.String(),
				Text:     fmt.Sprintf("Fire probability %.2f, %d active warnings", value, ack.WarningCount),
				Channel:  ack.Channel,
				SensorID: ack.SensorID,
				Value:    value,
				Risk:     ack.Risk,
				At:       now,
			})
		}
	}
}

func (s *IngestionService) record(ctx context.Context, e models.SensorEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, e); err != nil && s.log != nil {
		s.log.Errorw("event_append_failed", "type", e.Type, "error", err)
	}
}

func (s *IngestionService) notify(a models.Alert) {
	if s.notifier != nil {
		s.notifier.Notify(a)
	}
}

// ValidateValue checks that value is finite and physically plausible for ch.
func ValidateValue(ch models.Channel, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{Channel: ch, Reason: "not a finite number"}
	}
	switch ch {
	case models.ChannelCO2, models.ChannelSmoke, models.ChannelCO, models.ChannelFlammable, models.ChannelWindSpeed:
		if value < 0 {
			return &ValidationError{Channel: ch, Reason: "must not be negative"}
		}
	case models.ChannelHumidity:
		if value < 0 || value > 100 {
			return &ValidationError{Channel: ch, Reason: "must be within [0,100]"}
		}
	case models.ChannelTemperature:
		if value < absoluteZeroC {
			return &ValidationError{Channel: ch, Reason: "below absolute zero"}
		}
	case models.ChannelFireProbability:
		if value != models.FireProbabilitySentinel && (value < 0 || value > 1) {
			return &ValidationError{Channel: ch, Reason: "must be -1 or within [0,1]"}
		}
	}
	return nil
}

// ParseRawValue accepts a JSON number, a Go integer or float, or a numeric string.
func ParseRawValue(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, &ValidationError{Reason: fmt.Sprintf("malformed number %q", v.String())}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, &ValidationError{Reason: fmt.Sprintf("malformed number %q", v)}
		}
		return f, nil
	case nil:
		return 0, &ValidationError{Reason: "missing value"}
	default:
		return 0, &ValidationError{Reason: fmt.Sprintf("unsupported value type %T", raw)}
	}
}
