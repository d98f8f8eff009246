package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	errGetState   = "failed to load state"
	errGetHistory = "failed to load history"
	errGetRisk    = "failed to load risk"
	errHistoryN   = "invalid 'n'; use a non-negative integer"
)

// @Summary      Latest state
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "one key per channel plus timestamp"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "state_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      History snapshots
// @Tags         monitoring
// @Produce      json
// @Param        n    query  int  false  "Most recent n snapshots; 0 or missing returns all"
// @Success      200  {object}  map[string]interface{}  "count, history"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	n := 0
	if qs := c.Query("n"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errHistoryN})
			return
		}
		n = v
	}
	hist, err := h.services.Monitoring.GetHistory(c.Request.Context(), n)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetHistory, "history_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(hist),
		"history": hist,
	})
}

// @Summary      Fire risk
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  models.RiskStatus
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/risk [get]
func (h *Handler) getRisk(c *gin.Context) {
	risk, err := h.services.Monitoring.GetRisk(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetRisk, "risk_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, risk)
}

// @Summary      Threshold table
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/thresholds [get]
func (h *Handler) getThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"thresholds": h.services.Monitoring.Thresholds()})
}

// @Summary      Sensor id to channel bindings
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/channels [get]
func (h *Handler) getChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.services.Monitoring.Channels()})
}
