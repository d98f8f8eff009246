package service

import (
	"fmt"

	"forest_monitor/internal/models"
)

// DefaultBindings are the sensor ids of the deployed field station.
var DefaultBindings = []models.SensorBinding{
	{ID: "-OMZ52hULVlcWp1HjY_3", Channel: models.ChannelCO2},
	{ID: "-OMZ5FRWYXmtZDwXTIGk", Channel: models.ChannelSmoke},
	{ID: "-OMZ5H08E2DKCTkymTxS", Channel: models.ChannelCO},
	{ID: "-OMZ5JIY7Ap7CyNTOwSY", Channel: models.ChannelFlammable},
	{ID: "-OMZ5LVfac6SqXCeQRW-", Channel: models.ChannelTemperature},
	{ID: "-OMZ5Mnv-R5fWNH3v4Vl", Channel: models.ChannelHumidity},
	{ID: "-OMZ5OO8U2upkMfXPwWQ", Channel: models.ChannelWindSpeed},
	{ID: "-OMZ5SCV9iN5PHStzJMR", Channel: models.ChannelFireProbability},
}

// Registry is the static sensor id <-> channel mapping. It is read-only after construction.
type Registry struct {
	byID      map[string]models.Channel
	byChannel map[models.Channel]string
	bindings  []models.SensorBinding
}

// NewRegistry builds a registry from bindings; an empty list selects DefaultBindings.
func NewRegistry(bindings []models.SensorBinding) (*Registry, error) {
	if len(bindings) == 0 {
		bindings = DefaultBindings
	}
	r := &Registry{
		byID:      make(map[string]models.Channel, len(bindings)),
		byChannel: make(map[models.Channel]string, len(bindings)),
		bindings:  make([]models.SensorBinding, 0, len(bindings)),
	}
	for _, b := range bindings {
		if b.ID == "" {
			return nil, fmt.Errorf("registry: empty sensor id for %s", b.Channel)
		}
		if !b.Channel.Valid() {
			return nil, fmt.Errorf("registry: unknown channel %q", b.Channel)
		}
		if prev, dup := r.byID[b.ID]; dup {
			return nil, fmt.Errorf("registry: sensor id %q bound to both %s and %s", b.ID, prev, b.Channel)
		}
		if prev, dup := r.byChannel[b.Channel]; dup {
			return nil, fmt.Errorf("registry: channel %s bound to both %q and %q", b.Channel, prev, b.ID)
		}
		r.byID[b.ID] = b.Channel
		r.byChannel[b.Channel] = b.ID
		r.bindings = append(r.bindings, b)
	}
	return r, nil
}

// Resolve maps a sensor id to its channel by exact match.
func (r *Registry) Resolve(sensorID string) (models.Channel, error) {
	ch, ok := r.byID[sensorID]
	if !ok {
		return "", &UnknownSensorError{SensorID: sensorID}
	}
	return ch, nil
}

// IDOf returns the sensor id bound to a channel.
func (r *Registry) IDOf(ch models.Channel) (string, bool) {
	id, ok := r.byChannel[ch]
	return id, ok
}

// Bindings returns a copy of the configured bindings.
func (r *Registry) Bindings() []models.SensorBinding {
	out := make([]models.SensorBinding, len(r.bindings))
	copy(out, r.bindings)
	return out
}
