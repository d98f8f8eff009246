package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"forest_monitor/internal/models"
	"forest_monitor/internal/service"
)

type fakeSink struct {
	stored  map[string]map[string]any
	applied []any
	err     error
}

func (f *fakeSink) StoreRaw(_ context.Context, id string, payload map[string]any, _ time.Time) error {
	if f.stored == nil {
		f.stored = map[string]map[string]any{}
	}
	f.stored[id] = payload
	return nil
}

func (f *fakeSink) ApplyRawUpdate(_ context.Context, id string, raw any, _ time.Time) (models.UpdateAck, error) {
	f.applied = append(f.applied, raw)
	return models.UpdateAck{SensorID: id}, f.err
}

func TestDecodeReading(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "ok", in: `{"sensor_id":"s1","value":27.5}`, want: "27.5"},
		{name: "integer", in: `{"sensor_id":"s1","value":800}`, want: "800"},
		{name: "missing id", in: `{"value":1}`, wantErr: true},
		{name: "missing value", in: `{"sensor_id":"s1"}`, wantErr: true},
		{name: "string value", in: `{"sensor_id":"s1","value":"hot"}`, wantErr: true},
		{name: "not json", in: `sensor=1`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rd, err := DecodeReading([]byte(tc.in))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", rd)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeReading: %v", err)
			}
			if rd.Value.String() != tc.want {
				t.Fatalf("value = %s; want %s", rd.Value, tc.want)
			}
		})
	}
}

func TestProcessRecord_BothWritePaths(t *testing.T) {
	sink := &fakeSink{}
	c := &RedpandaConsumer{sink: sink, now: time.Now}

	if err := c.processRecord(context.Background(), []byte(`{"sensor_id":"s1","value":12}`)); err != nil {
		t.Fatalf("processRecord: %v", err)
	}
	if sink.stored["s1"]["value"] != json.Number("12") {
		t.Fatalf("stored = %+v", sink.stored)
	}
	if len(sink.applied) != 1 || sink.applied[0] != json.Number("12") {
		t.Fatalf("applied = %+v", sink.applied)
	}
}

func TestProcessRecord_UnknownSensorIsNotAFailure(t *testing.T) {
	sink := &fakeSink{err: &service.UnknownSensorError{SensorID: "bogus"}}
	c := &RedpandaConsumer{sink: sink, now: time.Now}

	if err := c.processRecord(context.Background(), []byte(`{"sensor_id":"bogus","value":1}`)); err != nil {
		t.Fatalf("processRecord: %v", err)
	}
	if _, ok := sink.stored["bogus"]; !ok {
		t.Fatalf("unknown sensor should still be stored raw")
	}
}

func TestProcessRecord_ValidationErrorSurfaces(t *testing.T) {
	sink := &fakeSink{err: &service.ValidationError{Channel: models.ChannelHumidity, Reason: "must be within [0,100]"}}
	c := &RedpandaConsumer{sink: sink, now: time.Now}

	err := c.processRecord(context.Background(), []byte(`{"sensor_id":"h","value":150}`))
	if !service.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestProcessRecord_MalformedSkipsSink(t *testing.T) {
	sink := &fakeSink{}
	c := &RedpandaConsumer{sink: sink, now: time.Now}

	if err := c.processRecord(context.Background(), []byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(sink.stored) != 0 || len(sink.applied) != 0 {
		t.Fatalf("sink touched for malformed record")
	}
}
