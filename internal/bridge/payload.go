package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"forest_monitor/internal/models"
)

// ErrMalformedPayload wraps every decode failure.
var ErrMalformedPayload = errors.New("bridge: malformed payload")

// Update is one field of a payload addressed to its sensor id.
type Update struct {
	Field    string
	SensorID string
	Value    float64
}

// Decoded is the result of decoding one payload.
type Decoded struct {
	Updates []Update
	Skipped []string // mapped fields present with a non-numeric value
}

// PayloadDecoder turns a received payload into per-sensor updates.
type PayloadDecoder struct {
	fields    map[string]string
	keys      []string
	fireField string
	scale     string
}

func NewPayloadDecoder(fields map[string]string, fireField, scale string) *PayloadDecoder {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &PayloadDecoder{fields: fields, keys: keys, fireField: fireField, scale: scale}
}

// Decode validates the payload as UTF-8 JSON describing one flat object and
// returns an update for every mapped field present. Unmapped keys are ignored.
func (d *PayloadDecoder) Decode(payload []byte) (Decoded, error) {
	payload = bytes.Trim(payload, "\x00 \t\r\n")
	if !utf8.Valid(payload) {
		return Decoded{}, fmt.Errorf("%w: not valid UTF-8", ErrMalformedPayload)
	}

	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if obj == nil {
		return Decoded{}, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}

	var out Decoded
	for _, key := range d.keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		v, ok := numeric(raw)
		if !ok {
			out.Skipped = append(out.Skipped, key)
			continue
		}
		if key == d.fireField {
			v = d.scaleFire(v)
		}
		out.Updates = append(out.Updates, Update{Field: key, SensorID: d.fields[key], Value: v})
	}
	return out, nil
}

// scaleFire converts the payload's fire probability to the [0,1] scale.
// Any negative value means the camera is disconnected.
func (d *PayloadDecoder) scaleFire(v float64) float64 {
	if v < 0 {
		return models.FireProbabilitySentinel
	}
	if d.scale == ScalePercent {
		return v / 100
	}
	return v
}

func numeric(raw any) (float64, bool) {
	n, ok := raw.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
