package service

import (
	"time"

	"forest_monitor/internal/models"
)

// StateStore keeps the latest reading per channel. It has no locking of its own:
// IngestionService serializes every access.
type StateStore struct {
	state models.LatestState
}

// NewStateStore returns a store with every gauge at 0 and fire probability unavailable.
func NewStateStore(at time.Time) *StateStore {
	return &StateStore{state: models.NewLatestState(at)}
}

// Set overwrites the entry for ch. Last write wins; timestamps are not compared.
// A FireProbability value of -1 stores Unavailable.
func (s *StateStore) Set(ch models.Channel, value float64, at time.Time) {
	if ch == models.ChannelFireProbability {
		s.state.Fire = models.FireReading{Probability: models.FireProbabilityFromWire(value), At: at}
	} else {
		s.state.Readings[ch] = models.Reading{Value: value, At: at}
	}
	s.state.UpdatedAt = at
}

// Get returns a deep copy of the current state.
func (s *StateStore) Get() models.LatestState {
	return s.state.Clone()
}
