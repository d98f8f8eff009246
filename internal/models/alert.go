package models

import "time"

// Alert is an operator notification raised by the ingestion path.
// Key groups repeats of the same condition for cooldown purposes.
type Alert struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	Channel  Channel   `json:"channel,omitempty"`
	SensorID string    `json:"sensor_id,omitempty"`
	Value    float64   `json:"value"`
	Risk     RiskLevel `json:"risk"`
	At       time.Time `json:"at"`
}
