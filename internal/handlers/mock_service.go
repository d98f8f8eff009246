package handlers

import (
	"context"
	"net/http"
	"time"

	"forest_monitor/internal/models"
	"forest_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockIngestion struct {
	ack   models.UpdateAck
	err   error
	calls int

	lastID  string
	lastRaw any
}

func (m *mockIngestion) ApplyUpdate(ctx context.Context, sensorID string, value float64, now time.Time) (models.UpdateAck, error) {
	return m.ApplyRawUpdate(ctx, sensorID, value, now)
}
func (m *mockIngestion) ApplyRawUpdate(ctx context.Context, sensorID string, raw any, now time.Time) (models.UpdateAck, error) {
	m.calls++
	m.lastID = sensorID
	m.lastRaw = raw
	return m.ack, m.err
}

type mockMonitoring struct {
	state      models.LatestState
	snapshot   models.DebugSnapshot
	history    []models.HistorySnapshot
	risk       models.RiskStatus
	thresholds []models.ThresholdRule
	channels   []models.SensorBinding
	err        error

	lastHistoryN int
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.LatestState, error) {
	return m.state, m.err
}
func (m *mockMonitoring) GetSnapshot(ctx context.Context) (models.DebugSnapshot, error) {
	return m.snapshot, m.err
}
func (m *mockMonitoring) GetHistory(ctx context.Context, n int) ([]models.HistorySnapshot, error) {
	m.lastHistoryN = n
	return m.history, m.err
}
func (m *mockMonitoring) GetRisk(ctx context.Context) (models.RiskStatus, error) {
	return m.risk, m.err
}
func (m *mockMonitoring) Thresholds() []models.ThresholdRule { return m.thresholds }
func (m *mockMonitoring) Channels() []models.SensorBinding   { return m.channels }

type mockEventLog struct {
	resp        []models.SensorEvent
	err         error
	lastFrom    time.Time
	lastTo      time.Time
	lastType    string
	lastChannel string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SensorEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastChannel = f.Channel
	return m.resp, m.err
}

type mockSensors struct {
	createID  string
	createErr error
	list      []models.SensorInfo
	listErr   error
	data      models.SensorData
	dataErr   error
	storeErr  error
	deleteErr error

	stored     map[string]map[string]any
	lastCreate [2]string
	deleted    []string
}

func (m *mockSensors) CreateSensor(ctx context.Context, name, description string) (string, error) {
	m.lastCreate = [2]string{name, description}
	return m.createID, m.createErr
}
func (m *mockSensors) ListSensors(ctx context.Context) ([]models.SensorInfo, error) {
	return m.list, m.listErr
}
func (m *mockSensors) GetSensorData(ctx context.Context, id string) (models.SensorData, error) {
	return m.data, m.dataErr
}
func (m *mockSensors) StoreRaw(ctx context.Context, id string, payload map[string]any, now time.Time) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	if m.stored == nil {
		m.stored = map[string]map[string]any{}
	}
	m.stored[id] = payload
	return nil
}
func (m *mockSensors) DeleteSensor(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, http.NotFoundHandler())
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request, token string) *http.Request {
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
