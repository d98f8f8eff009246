package models

import "time"

// SensorInfo is a registered sensor descriptor.
type SensorInfo struct {
	ID          string    `json:"id"`
	SensorName  string    `json:"sensor_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SensorData is the raw payload last written for a sensor id, known or not.
type SensorData struct {
	SensorID    string         `json:"sensor_id"`
	Payload     map[string]any `json:"payload"`
	LastUpdated time.Time      `json:"last_updated"`
}
