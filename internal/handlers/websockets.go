package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMsgSize      = 1 << 12 // 4 KB
	defaultInterval = 1 * time.Second
	maxInterval     = 10 * time.Second
)

// Stream views selectable with ?view=.
const (
	viewSnapshot = "snapshot"
	viewState    = "state"
	viewRisk     = "risk"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Dashboards are served from other origins.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// viewFetcher loads one stream frame.
type viewFetcher func(ctx context.Context) (interface{}, error)

// @Summary      Live monitoring stream
// @Description  Upgrades to WebSocket and pushes one view every interval.
// @Description  ?view=snapshot (default), state or risk. ?interval=2s or ?interval_ms=2000, max 10s.
// @Tags         monitoring
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	view, fetch, ok := h.viewFor(c.DefaultQuery("view", viewSnapshot))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown view; use snapshot, state or risk"})
		return
	}
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.drainReads(conn, done)

	ctx := c.Request.Context()
	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer ping.Stop()

	// first frame goes out immediately; a failure closes the stream
	if err := h.pushView(ctx, conn, view, fetch); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "view", view, "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.pushView(ctx, conn, view, fetch); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "view", view, "err", err)
				}
				return
			}
		}
	}
}

func (h *Handler) viewFor(name string) (string, viewFetcher, bool) {
	mon := h.services.Monitoring
	switch name {
	case viewSnapshot:
		return name, func(ctx context.Context) (interface{}, error) { return mon.GetSnapshot(ctx) }, true
	case viewState:
		return name, func(ctx context.Context) (interface{}, error) { return mon.GetState(ctx) }, true
	case viewRisk:
		return name, func(ctx context.Context) (interface{}, error) { return mon.GetRisk(ctx) }, true
	}
	return "", nil, false
}

// parseInterval reads ?interval=2s or ?interval_ms=2000; out of range values fall back to 1s.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			if d := time.Duration(v) * time.Millisecond; d <= maxInterval {
				return d
			}
		}
	}
	return defaultInterval
}

// drainReads consumes client frames so control messages are handled; done closes on disconnect.
func (h *Handler) drainReads(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) pushView(ctx context.Context, conn *websocket.Conn, view string, fetch viewFetcher) error {
	data, err := fetch(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_view_failed", "view", view, "err", err)
		}
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: view, Data: data})
}
