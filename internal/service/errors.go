package service

import (
	"errors"
	"fmt"

	"forest_monitor/internal/models"
)

// UnknownSensorError is returned when a sensor id is not in the registry.
type UnknownSensorError struct {
	SensorID string
}

func (e *UnknownSensorError) Error() string {
	return fmt.Sprintf("unknown sensor id %q", e.SensorID)
}

// ValidationError is returned when a value is malformed or out of range for its channel.
type ValidationError struct {
	Channel models.Channel
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Channel == "" {
		return "invalid value: " + e.Reason
	}
	return fmt.Sprintf("invalid value for %s: %s", e.Channel, e.Reason)
}

// IsUnknownSensor reports whether err carries an UnknownSensorError.
func IsUnknownSensor(err error) bool {
	var target *UnknownSensorError
	return errors.As(err, &target)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
