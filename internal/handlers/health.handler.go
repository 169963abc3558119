package handlers

import (
	"github.com/fasthttp/router"
	"github.com/nimasrn/campaign-console/internal/gateway"
	xhttp "github.com/nimasrn/campaign-console/pkg/http"
)

type HealthService interface {
	Stats() gateway.StatsSnapshot
}

type HealthHandler struct {
	stats   HealthService
	version string
}

func RegisterHealthRoutes(e *router.Router, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(stats HealthService, version string) *HealthHandler {
	return &HealthHandler{
		stats:   stats,
		version: version,
	}
}

type healthResponse struct {
	Status  string                `json:"status"`
	Version string                `json:"version"`
	Gateway gateway.StatsSnapshot `json:"gateway"`
}

// GetHealth reports liveness and the gateway counters. It never calls the
// remote API.
func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, xhttp.StatusOK, healthResponse{
		Status:  "success",
		Version: h.version,
		Gateway: h.stats.Stats(),
	})
}
