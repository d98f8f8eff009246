package bridge

import (
	"context"
	"errors"
	"time"

	"forest_monitor/internal/logger"
)

// ErrTimeout is returned when no payload arrives within the receive window.
var ErrTimeout = errors.New("bridge: receive timed out")

// Bridge relays radio payloads to the ingestion service, one cycle at a time.
// Delivery is at most once: failures are logged and dropped.
type Bridge struct {
	radio   Radio
	decoder *PayloadDecoder
	fwd     *Forwarder

	rxTimeout    time.Duration
	pollInterval time.Duration
	idleDelay    time.Duration

	log *logger.Logger
}

func New(cfg *Config, radio Radio, log *logger.Logger) *Bridge {
	return &Bridge{
		radio:        radio,
		decoder:      NewPayloadDecoder(cfg.Fields, cfg.FireField, cfg.FireProbabilityScale),
		fwd:          NewForwarder(cfg.Endpoint, cfg.RequestTimeout),
		rxTimeout:    cfg.RxTimeout,
		pollInterval: cfg.PollInterval,
		idleDelay:    cfg.IdleDelay,
		log:          log,
	}
}

// Run loops until ctx is cancelled or the radio closes, then tears the radio down.
func (b *Bridge) Run(ctx context.Context) error {
	defer func() {
		if err := b.radio.Teardown(); err != nil && b.log != nil {
			b.log.Warnw("radio_teardown_failed", "error", err)
		}
	}()

	for {
		sent, err := b.cycle(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrRadioClosed):
			return err
		case errors.Is(err, ErrTimeout):
			b.debug("rx_timeout")
		case err != nil:
			b.warn("cycle_failed", "error", err)
		default:
			b.debug("cycle_done", "forwarded", sent)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.idleDelay):
		}
	}
}

// cycle receives one payload and forwards each mapped field independently.
// It returns how many fields were delivered.
func (b *Bridge) cycle(ctx context.Context) (int, error) {
	payload, err := b.receive(ctx)
	if err != nil {
		return 0, err
	}

	decoded, err := b.decoder.Decode(payload)
	if err != nil {
		return 0, err
	}
	for _, field := range decoded.Skipped {
		b.warn("field_skipped", "field", field, "reason", "not a number")
	}

	sent := 0
	for _, u := range decoded.Updates {
		if err := b.fwd.Forward(ctx, u.SensorID, u.Value); err != nil {
			b.warn("delivery_failed", "field", u.Field, "sensor_id", u.SensorID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// receive polls the radio until a payload arrives, rxTimeout passes or ctx ends.
func (b *Bridge) receive(ctx context.Context) ([]byte, error) {
	if err := b.radio.StartReceive(ctx); err != nil {
		return nil, err
	}

	deadline := time.NewTimer(b.rxTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(b.pollInterval)
	defer tick.Stop()

	for {
		done, err := b.radio.RxDone()
		if err != nil {
			return nil, err
		}
		if done {
			payload, err := b.radio.ReadPayload()
			if cerr := b.radio.ClearIRQ(); cerr != nil {
				b.warn("clear_irq_failed", "error", cerr)
			}
			return payload, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrTimeout
		case <-tick.C:
		}
	}
}

func (b *Bridge) warn(msg string, kv ...interface{}) {
	if b.log != nil {
		b.log.Warnw(msg, kv...)
	}
}

func (b *Bridge) debug(msg string, kv ...interface{}) {
	if b.log != nil {
		b.log.Debugw(msg, kv...)
	}
}
