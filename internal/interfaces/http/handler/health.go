package handler

import (
	"net/http"
	"time"

	appprinting "github.com/erp/orderprint/internal/application/printing"
	"github.com/erp/orderprint/internal/infrastructure/logger"
	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StorageProbe reports whether artifacts can be written
type StorageProbe interface {
	CheckStorage() error
	Mode() appprinting.Mode
}

// HealthHandler serves GET /health
type HealthHandler struct {
	probe     StorageProbe
	version   string
	startTime time.Time
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(probe StorageProbe, version string, log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthHandler{
		probe:     probe,
		version:   version,
		startTime: time.Now(),
		logger:    log,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health godoc
//
//	@ID				health
//
//	@Summary		Service health
//	@Description	Reports mode, uptime and version. 503 when the storage root is not writable.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	dto.HealthResponse
//	@Failure		503	{object}	dto.HealthResponse
//	@Router			/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:  "ok",
		Storage: "ok",
		Mode:    string(h.probe.Mode()),
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.version,
	}

	if err := h.probe.CheckStorage(); err != nil {
		logger.WithLogger(c.Request.Context(), h.logger).Error("storage health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Storage = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
