package models

import (
	"encoding/json"
	"fmt"
)

// FireProbabilitySentinel is the wire value meaning "vision system disconnected".
const FireProbabilitySentinel = -1.0

// FireProbability is the vision-derived fire probability. It is either a known
// value in [0,1] or unavailable. On the wire an unavailable probability is -1.
type FireProbability struct {
	value float64
	known bool
}

// Known returns an available probability.
func Known(v float64) FireProbability { return FireProbability{value: v, known: true} }

// Unavailable returns the "camera disconnected" probability.
func Unavailable() FireProbability { return FireProbability{} }

// FireProbabilityFromWire converts the wire representation, mapping the sentinel to Unavailable.
func FireProbabilityFromWire(v float64) FireProbability {
	if v == FireProbabilitySentinel {
		return Unavailable()
	}
	return Known(v)
}

// Value returns the probability and whether it is available.
func (p FireProbability) Value() (float64, bool) { return p.value, p.known }

// IsKnown reports whether the vision system supplied a value.
func (p FireProbability) IsKnown() bool { return p.known }

// Wire returns the external representation (-1 when unavailable).
func (p FireProbability) Wire() float64 {
	if !p.known {
		return FireProbabilitySentinel
	}
	return p.value
}

func (p FireProbability) String() string {
	if !p.known {
		return "unavailable"
	}
	return fmt.Sprintf("%.2f", p.value)
}

func (p FireProbability) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Wire())
}

func (p *FireProbability) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = FireProbabilityFromWire(v)
	return nil
}
