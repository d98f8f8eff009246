package models

import (
	"encoding/json"
	"time"
)

// Reading is the last value seen on a gauge channel.
type Reading struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// FireReading is the last fire probability seen and when it arrived.
type FireReading struct {
	Probability FireProbability `json:"probability"`
	At          time.Time       `json:"at"`
}

// LatestState holds exactly one entry per known channel.
type LatestState struct {
	Readings  map[Channel]Reading
	Fire      FireReading
	UpdatedAt time.Time
}

// NewLatestState returns the initial state: every gauge at 0, fire unavailable.
func NewLatestState(at time.Time) LatestState {
	st := LatestState{
		Readings:  make(map[Channel]Reading, len(GaugeChannels)),
		Fire:      FireReading{Probability: Unavailable(), At: at},
		UpdatedAt: at,
	}
	for _, ch := range GaugeChannels {
		st.Readings[ch] = Reading{At: at}
	}
	return st
}

// Value returns the wire value of a channel; fire probability uses the -1 sentinel.
func (s LatestState) Value(ch Channel) (float64, bool) {
	if ch == ChannelFireProbability {
		return s.Fire.Probability.Wire(), true
	}
	r, ok := s.Readings[ch]
	return r.Value, ok
}

// Clone returns a deep copy that shares no memory with s.
func (s LatestState) Clone() LatestState {
	out := LatestState{
		Readings:  make(map[Channel]Reading, len(s.Readings)),
		Fire:      s.Fire,
		UpdatedAt: s.UpdatedAt,
	}
	for ch, r := range s.Readings {
		out.Readings[ch] = r
	}
	return out
}

// flat renders the state in the external layout: one key per channel plus a timestamp.
func (s LatestState) flat(ts time.Time) map[string]any {
	m := make(map[string]any, len(Channels)+1)
	for _, ch := range Channels {
		v, _ := s.Value(ch)
		m[string(ch)] = v
	}
	m["timestamp"] = ts
	return m
}

func (s LatestState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.flat(s.UpdatedAt))
}

// HistorySnapshot is an immutable copy of the latest state taken at admission time.
type HistorySnapshot struct {
	State      LatestState
	AdmittedAt time.Time
}

func (h HistorySnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.State.flat(h.AdmittedAt))
}

// DebugSnapshot is the read-only projection served to view layers.
type DebugSnapshot struct {
	LatestData   LatestState       `json:"latest_data"`
	HistoryCount int               `json:"history_count"`
	History      []HistorySnapshot `json:"history"`
	Warnings     int               `json:"warnings"`
}

// UpdateAck acknowledges one applied update.
type UpdateAck struct {
	SensorID     string    `json:"sensor_id"`
	Channel      Channel   `json:"channel"`
	Breached     bool      `json:"breached"`
	Message      string    `json:"message,omitempty"`
	Admitted     bool      `json:"admitted"`
	HistoryLen   int       `json:"history_len"`
	Risk         RiskLevel `json:"risk"`
	WarningCount int       `json:"warning_count"`
}
