package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedRadio delivers queued payloads after a fixed number of polls.
type scriptedRadio struct {
	mu       sync.Mutex
	payloads [][]byte
	polls    int
	readyAt  int
	pending  []byte
	tornDown atomic.Bool
	cleared  int
}

func (r *scriptedRadio) StartReceive(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls = 0
	return ctx.Err()
}

func (r *scriptedRadio) RxDone() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
	if len(r.payloads) == 0 || r.polls < r.readyAt {
		return false, nil
	}
	r.pending, r.payloads = r.payloads[0], r.payloads[1:]
	return true, nil
}

func (r *scriptedRadio) ReadPayload() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, nil
}

func (r *scriptedRadio) ClearIRQ() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
	r.pending = nil
	return nil
}

func (r *scriptedRadio) Teardown() error {
	r.tornDown.Store(true)
	return nil
}

func testConfig(endpoint string) *Config {
	cfg := &Config{Endpoint: endpoint}
	cfg.applyDefaults()
	cfg.RxTimeout = 200 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	cfg.IdleDelay = 10 * time.Millisecond
	return cfg
}

func TestCycle_ForwardsEachFieldIndependently(t *testing.T) {
	var mu sync.Mutex
	paths := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.URL.Path] = true
		mu.Unlock()
		// the humidity sensor is rejected; the others still go through
		if strings.HasSuffix(r.URL.Path, "-OMZ5Mnv-R5fWNH3v4Vl") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	radio := &scriptedRadio{
		readyAt:  3,
		payloads: [][]byte{[]byte(`{"Temperature": 24, "Humidity": 140, "Fire_Probability": 35}`)},
	}
	b := New(testConfig(srv.URL), radio, nil)

	sent, err := b.cycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d; want 2", sent)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 PUTs, got %v", paths)
	}
	if radio.cleared != 1 {
		t.Fatalf("ClearIRQ calls = %d", radio.cleared)
	}
}

func TestReceive_Timeout(t *testing.T) {
	b := New(testConfig("http://127.0.0.1:1"), &scriptedRadio{}, nil)

	start := time.Now()
	_, err := b.receive(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) < 200*time.Millisecond {
		t.Fatalf("returned before the receive window elapsed")
	}
}

func TestRun_CancelTearsDownRadio(t *testing.T) {
	radio := &scriptedRadio{}
	b := New(testConfig("http://127.0.0.1:1"), radio, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	if !radio.tornDown.Load() {
		t.Fatalf("radio not torn down")
	}
}

func TestRun_LineRadioEndOfInput(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	input := `{"Temperature": 20}` + "\n" + `not json` + "\n" + `{"MQ2_Smoke": 5, "MQ7_CO": 1}` + "\n"
	radio := NewLineRadio(io.NopCloser(strings.NewReader(input)))
	b := New(testConfig(srv.URL), radio, nil)

	err := b.Run(context.Background())
	if !errors.Is(err, ErrRadioClosed) {
		t.Fatalf("expected ErrRadioClosed, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("forwarded %d readings; want 3", got)
	}
}

func TestRun_LineRadioSurvivesOversizedLine(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	input := strings.Repeat("x", 70*1024) + "\n" + `{"Temperature": 30}` + "\n"
	radio := NewLineRadio(io.NopCloser(strings.NewReader(input)))
	b := New(testConfig(srv.URL), radio, nil)

	err := b.Run(context.Background())
	if !errors.Is(err, ErrRadioClosed) {
		t.Fatalf("expected ErrRadioClosed, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("forwarded %d readings; want 1", got)
	}
}
