package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"forest_monitor/internal/models"
	"forest_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type testFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// dialStream serves /ws for mon and dials it with query.
func dialStream(t *testing.T, mon *mockMonitoring, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewHandler(&service.Service{Monitoring: mon}, nil, nil).wsConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var f testFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := map[string]time.Duration{
		"/ws":                               1 * time.Second,
		"/ws?interval=500ms":                500 * time.Millisecond,
		"/ws?interval=10s":                  10 * time.Second,
		"/ws?interval=11s":                  1 * time.Second,
		"/ws?interval=-2s":                  1 * time.Second,
		"/ws?interval=soon":                 1 * time.Second,
		"/ws?interval_ms=250":               250 * time.Millisecond,
		"/ws?interval_ms=10001":             1 * time.Second,
		"/ws?interval_ms=0":                 1 * time.Second,
		"/ws?interval=3s&interval_ms=250":   3 * time.Second,
		"/ws?interval=soon&interval_ms=250": 250 * time.Millisecond,
		"/ws?view=risk&interval_ms=40":      40 * time.Millisecond,
	}
	for target, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		if got := h.parseInterval(c); got != want {
			t.Errorf("%s: got %v, want %v", target, got, want)
		}
	}
}

func TestWebSocket_SnapshotStream_InitialAndPeriodic(t *testing.T) {
	at := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	st := models.NewLatestState(at)
	st.Readings[models.ChannelTemperature] = models.Reading{Value: 31.5, At: at}
	mon := &mockMonitoring{snapshot: models.DebugSnapshot{
		LatestData:   st,
		HistoryCount: 3,
		History:      []models.HistorySnapshot{{State: st, AdmittedAt: at}},
		Warnings:     1,
	}}
	conn := dialStream(t, mon, "interval_ms=20")

	first := readFrame(t, conn)
	if first.Type != "snapshot" || len(first.Data) == 0 {
		t.Fatalf("bad frame: %+v", first)
	}
	var snap struct {
		LatestData   map[string]any   `json:"latest_data"`
		HistoryCount int              `json:"history_count"`
		History      []map[string]any `json:"history"`
		Warnings     int              `json:"warnings"`
	}
	if err := json.Unmarshal(first.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.HistoryCount != 3 || snap.Warnings != 1 || len(snap.History) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.LatestData["Temperature"] != 31.5 || snap.LatestData["Fire_Probability"] != -1.0 {
		t.Fatalf("unexpected latest data: %v", snap.LatestData)
	}

	if next := readFrame(t, conn); next.Type != "snapshot" {
		t.Fatalf("expected periodic snapshot, got %+v", next)
	}
}

func TestWebSocket_RiskView(t *testing.T) {
	mon := &mockMonitoring{risk: models.RiskStatus{Level: models.RiskMedium, Probability: models.Known(0.55)}}
	f := readFrame(t, dialStream(t, mon, "view=risk"))

	var risk map[string]any
	_ = json.Unmarshal(f.Data, &risk)
	if f.Type != "risk" || risk["level"] != "Medium Risk" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestWebSocket_InitialSnapshotError_Closes(t *testing.T) {
	conn := dialStream(t, &mockMonitoring{err: errors.New("boom")}, "")

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected closed stream, got message: %s", string(raw))
	}
}

func TestWebSocket_UnknownViewRejected(t *testing.T) {
	r := gin.New()
	r.GET("/ws", NewHandler(&service.Service{Monitoring: &mockMonitoring{}}, nil, nil).wsConnect)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?view=bogus", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
}
