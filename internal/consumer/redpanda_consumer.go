package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"forest_monitor/internal/logger"
	"forest_monitor/internal/models"
	"forest_monitor/internal/service"

	"github.com/twmb/franz-go/pkg/kgo"
)

const connectAttempts = 5

// Sink is where consumed readings go: the raw store first, then the core.
type Sink interface {
	StoreRaw(ctx context.Context, id string, payload map[string]any, now time.Time) error
	ApplyRawUpdate(ctx context.Context, sensorID string, raw any, now time.Time) (models.UpdateAck, error)
}

// Reading is one record on the sensor topic.
type Reading struct {
	SensorID  string      `json:"sensor_id"`
	Value     json.Number `json:"value"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

// RedpandaConsumer feeds sensor readings from a topic into the ingestion path.
type RedpandaConsumer struct {
	client *kgo.Client
	topic  string
	sink   Sink
	now    func() time.Time
	log    *logger.Logger
}

// NewRedpandaConsumer connects to brokers (comma separated) and joins group.
func NewRedpandaConsumer(ctx context.Context, brokers, topic, group string, sink Sink, log *logger.Logger) (*RedpandaConsumer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.DisableAutoCommit(),
		kgo.SessionTimeout(30 * time.Second),
		kgo.RetryTimeout(30 * time.Second),
		kgo.RetryBackoffFn(func(attempts int) time.Duration {
			return time.Duration(attempts) * time.Second
		}),
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := kgo.NewClient(opts...)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = client.Ping(pingCtx)
			cancel()
			if err == nil {
				if log != nil {
					log.Infow("redpanda_connected", "brokers", brokers, "topic", topic, "group", group)
				}
				return &RedpandaConsumer{client: client, topic: topic, sink: sink, now: time.Now, log: log}, nil
			}
			client.Close()
		}
		lastErr = err
		if log != nil {
			log.Warnw("redpanda_connect_failed", "attempt", attempt, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Duration(attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to Redpanda after %d attempts: %w", connectAttempts, lastErr)
}

// Start consumes until ctx is cancelled. Offsets are committed after each poll.
func (c *RedpandaConsumer) Start(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if fetches.IsClientClosed() {
			return errors.New("client closed")
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if c.log != nil {
				c.log.Warnw("fetch_error", "topic", topic, "partition", partition, "error", err)
			}
		})

		var processed int
		fetches.EachRecord(func(r *kgo.Record) {
			processed++
			if err := c.processRecord(ctx, r.Value); err != nil && c.log != nil {
				c.log.Warnw("record_skipped", "offset", r.Offset, "partition", r.Partition, "error", err)
			}
		})

		if processed > 0 {
			if err := c.client.CommitUncommittedOffsets(ctx); err != nil && c.log != nil {
				c.log.Errorw("commit_failed", "error", err)
			}
		}
	}
}

// processRecord takes the same two write paths as the HTTP ingress.
// An unknown sensor is stored raw and not treated as a failure.
func (c *RedpandaConsumer) processRecord(ctx context.Context, value []byte) error {
	rd, err := DecodeReading(value)
	if err != nil {
		return err
	}
	now := c.now().UTC()
	if err := c.sink.StoreRaw(ctx, rd.SensorID, map[string]any{"value": rd.Value}, now); err != nil {
		return fmt.Errorf("store raw %q: %w", rd.SensorID, err)
	}
	if _, err := c.sink.ApplyRawUpdate(ctx, rd.SensorID, rd.Value, now); err != nil {
		if service.IsUnknownSensor(err) {
			return nil
		}
		return err
	}
	return nil
}

// DecodeReading parses one record value.
func DecodeReading(b []byte) (Reading, error) {
	var rd Reading
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&rd); err != nil {
		return Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if strings.TrimSpace(rd.SensorID) == "" {
		return Reading{}, errors.New("decode reading: missing sensor_id")
	}
	if rd.Value == "" {
		return Reading{}, errors.New("decode reading: missing value")
	}
	return rd, nil
}

// Close closes the Redpanda client
func (c *RedpandaConsumer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
