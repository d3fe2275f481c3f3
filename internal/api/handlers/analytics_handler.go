package handlers

import (
	"net/http"

	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves the aggregated dashboard
type AnalyticsHandler struct {
	analyticsSvc *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsSvc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	analytics := rg.Group("/analytics")
	{
		analytics.GET("/dashboard", h.Dashboard)
		analytics.POST("/dashboard/refresh", h.Refresh)
	}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.analyticsSvc.GetDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dashboard)
}

func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	if err := h.analyticsSvc.InvalidateDashboard(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	dashboard, err := h.analyticsSvc.GetDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dashboard)
}
