package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"forest_monitor/internal/models"
	"forest_monitor/internal/service"
)

func TestGetState_FlatLayout(t *testing.T) {
	at := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	st := models.NewLatestState(at)
	st.Readings[models.ChannelHumidity] = models.Reading{Value: 15, At: at}
	st.Fire = models.FireReading{Probability: models.Known(0.6), At: at}
	r := newTestRouter(&service.Service{Monitoring: &mockMonitoring{state: st}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != len(models.Channels)+1 {
		t.Fatalf("expected %d keys, got %v", len(models.Channels)+1, out)
	}
	if out["Humidity"] != 15.0 || out["Fire_Probability"] != 0.6 {
		t.Fatalf("unexpected values: %v", out)
	}
	if _, ok := out["timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", out)
	}
}

func TestGetHistory(t *testing.T) {
	at := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	mon := &mockMonitoring{history: []models.HistorySnapshot{
		{State: models.NewLatestState(at), AdmittedAt: at},
		{State: models.NewLatestState(at), AdmittedAt: at.Add(6 * time.Second)},
	}}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?n=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out struct {
		Count   int              `json:"count"`
		History []map[string]any `json:"history"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.History) != 2 || mon.lastHistoryN != 2 {
		t.Fatalf("unexpected: %+v n=%d", out, mon.lastHistoryN)
	}

	for _, bad := range []string{"-1", "ten"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?n="+bad, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("n=%s: status=%d, want 400", bad, w.Code)
		}
	}

	mon.err = errors.New("cancelled")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	if w.Code != http.StatusInternalServerError || mon.lastHistoryN != 0 {
		t.Fatalf("status=%d n=%d", w.Code, mon.lastHistoryN)
	}
}

func TestGetRisk(t *testing.T) {
	mon := &mockMonitoring{risk: models.RiskStatus{
		Level:           models.RiskHigh,
		Probability:     models.Known(0.8),
		CameraConnected: true,
		Warnings:        []models.Warning{{Channel: models.ChannelTemperature, Value: 31, Message: "High: > 28°C"}},
		WarningCount:    2,
	}}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/risk", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["level"] != "High Risk" || out["camera_connected"] != true || out["warning_count"] != 2.0 {
		t.Fatalf("unexpected risk: %v", out)
	}
}

func TestThresholdsAndChannels(t *testing.T) {
	mon := &mockMonitoring{
		thresholds: models.DefaultThresholds,
		channels:   []models.SensorBinding{{ID: "abc", Channel: models.ChannelCO}},
	}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/thresholds", nil))
	var th struct {
		Thresholds []models.ThresholdRule `json:"thresholds"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &th)
	if w.Code != http.StatusOK || len(th.Thresholds) != len(models.DefaultThresholds) {
		t.Fatalf("thresholds: %d %+v", w.Code, th)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil))
	var ch struct {
		Channels []models.SensorBinding `json:"channels"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &ch)
	if len(ch.Channels) != 1 || ch.Channels[0].ID != "abc" || ch.Channels[0].Channel != models.ChannelCO {
		t.Fatalf("channels: %+v", ch)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("forest_updates_total 1\n"))
	})
	r := NewHandler(&service.Service{}, nil, metrics).InitRoutes()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "forest_updates_total") {
		t.Fatalf("metrics body: %s", w.Body.String())
	}
}
