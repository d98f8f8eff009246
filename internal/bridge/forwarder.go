package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DeliveryError reports a failed forward. StatusCode is 0 for transport failures.
type DeliveryError struct {
	SensorID   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("deliver %s: status %d", e.SensorID, e.StatusCode)
	}
	return fmt.Sprintf("deliver %s: %v", e.SensorID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Forwarder PUTs single readings to the ingestion service. It never retries.
type Forwarder struct {
	endpoint   string
	httpClient *http.Client
}

func NewForwarder(endpoint string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type updateBody struct {
	Value float64 `json:"value"`
}

// Forward sends PUT {endpoint}/api/sensors/{id} with body {"value": v}.
func (f *Forwarder) Forward(ctx context.Context, sensorID string, value float64) error {
	body, err := json.Marshal(updateBody{Value: value})
	if err != nil {
		return &DeliveryError{SensorID: sensorID, Err: err}
	}
	target := f.endpoint + "/api/sensors/" + url.PathEscape(sensorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{SensorID: sensorID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{SensorID: sensorID, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{SensorID: sensorID, StatusCode: resp.StatusCode}
	}
	return nil
}
