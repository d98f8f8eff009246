package handlers

import (
	"net/http"

	"forest_monitor/internal/logger"
	"forest_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies.
// A nil metrics handler serves the default prometheus registry.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(h.metrics))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerSensorRoutes(router)
	h.registerAPIRoutes(router)

	// Snapshot stream over WebSocket, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

// registerSensorRoutes keeps the paths field devices already use.
func (h *Handler) registerSensorRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/debug", h.getDebug)
		api.GET("/sensors", h.listSensors)
		api.GET("/sensors/:id", h.getSensorData)
		// Body example: {"value": 27.5}
		api.PUT("/sensors/:id", h.putSensorValue)
		api.POST("/sensors", h.requireOperator, h.createSensor)
		api.DELETE("/sensors/:id", h.requireOperator, h.deleteSensor)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/state", h.getState)
		api.GET("/history", h.getHistory)
		api.GET("/risk", h.getRisk)
		api.GET("/thresholds", h.getThresholds)
		api.GET("/channels", h.getChannels)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs", h.requireOperator)
	{
		logs.GET("", h.getLogs)
	}
}
