package models

import "time"

// Event types recorded by the ingestion gateway.
const (
	EventAlert      = "ALERT"
	EventRecovered  = "RECOVERED"
	EventRiskChange = "RISK_CHANGE"
)

// SensorEvent is a single log entry.
type SensorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`              // ALERT | RECOVERED | RISK_CHANGE
	Channel     Channel   `json:"channel,omitempty"` // Fire_Probability for RISK_CHANGE
	Description string    `json:"description"`       // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
