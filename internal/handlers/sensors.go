package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"forest_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusStoredRaw = "stored_raw"

	errInvalidBodyPref = "invalid body: "
	errStoreRaw        = "failed to store sensor data"
	errListSensors     = "failed to load sensors"
	errLoadSensorData  = "failed to load sensor data"
	errCreateSensor    = "failed to create sensor"
	errDeleteSensor    = "failed to delete sensor"
	errGetSnapshot     = "failed to load snapshot"
	errSensorNotFound  = "not found"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// CreateSensorRequest is the body of POST /api/sensors.
type CreateSensorRequest struct {
	SensorName  string `json:"sensor_name" binding:"required" example:"ridge smoke"`
	Description string `json:"description" binding:"required" example:"MQ2 on the north ridge"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Push a sensor reading
// @Description  The raw body is stored for any id. Known ids also update the live state.
// @Tags         sensors
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Sensor id"
// @Param        body  body  map[string]interface{}  true  "Reading, e.g. {\"value\": 27.5}"
// @Success      200   {object}  map[string]interface{}
// @Success      202   {object}  map[string]string  "stored raw, sensor unknown"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/sensors/{id} [put]
func (h *Handler) putSensorValue(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	payload, err := decodeObject(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	now := time.Now().UTC()
	if err := h.services.Sensors.StoreRaw(ctx, id, payload, now); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStoreRaw, "sensor_store_raw_failed", err, "sensor_id", id)
		return
	}

	_, err = h.services.Ingestion.ApplyRawUpdate(ctx, id, payload["value"], now)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{})
	case service.IsUnknownSensor(err):
		c.JSON(http.StatusAccepted, gin.H{"status": statusStoredRaw, "error": err.Error()})
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to apply update", "sensor_apply_failed", err, "sensor_id", id)
	}
}

// decodeObject reads the request body as a JSON object, keeping numbers exact.
func decodeObject(c *gin.Context) (map[string]any, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("expected a JSON object")
	}
	return obj, nil
}

// @Summary      List sensor descriptors
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sensors"
// @Failure      500  {object}  map[string]string
// @Router       /api/sensors [get]
func (h *Handler) listSensors(c *gin.Context) {
	sensors, err := h.services.Sensors.ListSensors(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSensors, "sensors_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(sensors),
		"sensors": sensors,
	})
}

// @Summary      Raw data of one sensor
// @Tags         sensors
// @Produce      json
// @Param        id   path  string  true  "Sensor id"
// @Success      200  {object}  models.SensorData
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/sensors/{id} [get]
func (h *Handler) getSensorData(c *gin.Context) {
	id := c.Param("id")
	data, err := h.services.Sensors.GetSensorData(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoSensorData) {
			c.JSON(http.StatusNotFound, gin.H{"error": errSensorNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSensorData, "sensor_data_get_failed", err, "sensor_id", id)
		return
	}
	c.JSON(http.StatusOK, data)
}

// @Summary      Register a sensor descriptor
// @Tags         sensors
// @Accept       json
// @Produce      json
// @Param        body  body  CreateSensorRequest  true  "Descriptor"
// @Success      201   {object}  map[string]string  "id"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/sensors [post]
// @Security     BearerAuth
func (h *Handler) createSensor(c *gin.Context) {
	var req CreateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	id, err := h.services.Sensors.CreateSensor(c.Request.Context(), req.SensorName, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrEmptySensorName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errCreateSensor, "sensor_create_failed", err, "operator_id", operatorID(c))
		return
	}
	if h.log != nil {
		h.log.Infow("sensor_created", "sensor_id", id, "operator_id", operatorID(c))
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// @Summary      Delete a sensor descriptor and its raw data
// @Tags         sensors
// @Param        id   path  string  true  "Sensor id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/sensors/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSensor(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Sensors.DeleteSensor(c.Request.Context(), id); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDeleteSensor, "sensor_delete_failed", err, "sensor_id", id, "operator_id", operatorID(c))
		return
	}
	if h.log != nil {
		h.log.Infow("sensor_deleted", "sensor_id", id, "operator_id", operatorID(c))
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Debug snapshot
// @Description  Latest data, history size, the last five history entries and the warning count.
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  models.DebugSnapshot
// @Failure      500  {object}  map[string]string
// @Router       /api/debug [get]
func (h *Handler) getDebug(c *gin.Context) {
	snap, err := h.services.Monitoring.GetSnapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSnapshot, "debug_snapshot_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
