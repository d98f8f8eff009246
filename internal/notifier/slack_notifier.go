package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"forest_monitor/internal/logger"
	"forest_monitor/internal/models"
	"forest_monitor/internal/service"
)

// Alert outcomes reported to the OutcomeRecorder.
const (
	OutcomeSent       = "sent"
	OutcomeSuppressed = "suppressed"
	OutcomeDropped    = "dropped"
	OutcomeFailed     = "failed"
)

const (
	defaultQueueSize = 32
	defaultCooldown  = 5 * time.Minute
	requestTimeout   = 10 * time.Second
)

// OutcomeRecorder counts what happened to each alert.
type OutcomeRecorder interface {
	AlertOutcome(outcome string)
}

// SlackNotifier posts alerts to a Slack incoming webhook from a background worker.
type SlackNotifier struct {
	webhookURL string
	channel    string
	httpClient *http.Client
	queue      chan models.Alert
	cooldown   time.Duration
	now        func() time.Time

	seenMu sync.Mutex
	seen   map[string]sentMark

	outcomes OutcomeRecorder
	log      *logger.Logger
}

var _ service.AlertNotifier = (*SlackNotifier)(nil)

// sentMark is the last alert let through for a key.
type sentMark struct {
	at   time.Time
	risk models.RiskLevel
}

// SlackMessage represents a Slack message
type SlackMessage struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a Slack message attachment
type Attachment struct {
	Fallback  string  `json:"fallback,omitempty"`
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

// Field represents a field in a Slack attachment
type Field struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
	Short bool   `json:"short,omitempty"`
}

// NewSlackNotifier creates a notifier. Call Run to start delivering.
func NewSlackNotifier(webhookURL, channel string, cooldown time.Duration, outcomes OutcomeRecorder, log *logger.Logger) (*SlackNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("slack webhook URL cannot be empty")
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		httpClient: &http.Client{Timeout: requestTimeout},
		queue:      make(chan models.Alert, defaultQueueSize),
		cooldown:   cooldown,
		now:        time.Now,
		seen:       make(map[string]sentMark),
		outcomes:   outcomes,
		log:        log,
	}, nil
}

// Notify enqueues a without blocking. Repeats of a key inside the cooldown
// window are suppressed unless the risk level rose; a full queue drops the alert.
func (s *SlackNotifier) Notify(a models.Alert) {
	if !s.shouldSend(a) {
		s.outcome(OutcomeSuppressed)
		return
	}
	select {
	case s.queue <- a:
	default:
		s.forget(a)
		s.outcome(OutcomeDropped)
		if s.log != nil {
			s.log.Warnw("alert_dropped", "key", a.Key, "reason", "queue full")
		}
	}
}

// Run delivers queued alerts until ctx is cancelled.
func (s *SlackNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-s.queue:
			if err := s.SendAlert(ctx, a); err != nil {
				s.forget(a)
				s.outcome(OutcomeFailed)
				if s.log != nil {
					s.log.Errorw("alert_send_failed", "key", a.Key, "error", err)
				}
				continue
			}
			s.outcome(OutcomeSent)
		}
	}
}

// shouldSend checks the per-key cooldown and reserves the key for a.
// A higher risk than the last one let through skips the cooldown.
func (s *SlackNotifier) shouldSend(a models.Alert) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	now := s.now()
	if last, ok := s.seen[a.Key]; ok && now.Sub(last.at) < s.cooldown && a.Risk <= last.risk {
		return false
	}
	s.seen[a.Key] = sentMark{at: now, risk: a.Risk}
	return true
}

// forget releases the reservation taken for an alert that was never delivered.
// A later escalation on the same key keeps its own reservation.
func (s *SlackNotifier) forget(a models.Alert) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	if last, ok := s.seen[a.Key]; ok && last.risk == a.Risk {
		delete(s.seen, a.Key)
	}
}

// SendAlert posts a formatted alert synchronously.
func (s *SlackNotifier) SendAlert(ctx context.Context, a models.Alert) error {
	color := "#FFA500"
	if a.Risk.AtLeast(models.RiskHigh) {
		color = "#FF0000"
	}
	fields := []Field{
		{Title: "Risk", Value: a.Risk.String(), Short: true},
	}
	if a.Channel != "" {
		fields = append(fields,
			Field{Title: "Channel", Value: string(a.Channel), Short: true},
			Field{Title: "Value", Value: fmt.Sprintf("%g", a.Value), Short: true},
		)
	}
	if a.SensorID != "" {
		fields = append(fields, Field{Title: "Sensor", Value: a.SensorID, Short: true})
	}
	fields = append(fields, Field{Title: "Time", Value: a.At.Format(time.RFC1123)})

	return s.sendMessage(ctx, SlackMessage{
		Channel:   s.channel,
		Username:  "Forest Monitor",
		IconEmoji: ":evergreen_tree:",
		Attachments: []Attachment{{
			Fallback:  a.Title + ": " + a.Text,
			Color:     color,
			Title:     a.Title,
			Text:      a.Text,
			Fields:    fields,
			Footer:    "Forest fire sensor monitor",
			Timestamp: a.At.Unix(),
		}},
	})
}

func (s *SlackNotifier) sendMessage(ctx context.Context, message SlackMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error marshaling Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %s", resp.Status)
	}
	return nil
}

func (s *SlackNotifier) outcome(o string) {
	if s.outcomes != nil {
		s.outcomes.AlertOutcome(o)
	}
}
