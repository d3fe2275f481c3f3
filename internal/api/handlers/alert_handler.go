package handlers

import (
	"net/http"
	"strconv"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// AlertHandler handles alert HTTP requests
type AlertHandler struct {
	alertSvc *services.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertSvc *services.AlertService) *AlertHandler {
	return &AlertHandler{alertSvc: alertSvc}
}

// RegisterRoutes registers alert routes
func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	alerts := rg.Group("/alerts")
	{
		alerts.POST("", h.Create)
		alerts.GET("", h.List)
		alerts.GET("/stats", h.Stats)
		alerts.GET("/unread", h.Unread)
		alerts.GET("/critical", h.Critical)
		alerts.GET("/entity/:type/:entityId", h.ForEntity)
		alerts.GET("/:id", h.Get)
		alerts.DELETE("/:id", h.Delete)
		alerts.POST("/:id/read", h.MarkAsRead)
		alerts.POST("/:id/resolve", h.Resolve)
		alerts.POST("/:id/action", h.TakeAction)
		alerts.POST("/:id/escalate", h.Escalate)
	}
}

func (h *AlertHandler) Create(c *gin.Context) {
	var alert models.Alert
	if err := c.ShouldBindJSON(&alert); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.alertSvc.CreateAlert(c.Request.Context(), &alert)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

func (h *AlertHandler) List(c *gin.Context) {
	filter := repository.AlertFilter{
		Type:        models.AlertType(c.Query("type")),
		Severity:    models.AlertSeverity(c.Query("severity")),
		Recipient:   c.Query("recipient"),
		RelatedType: c.Query("related_type"),
		RelatedID:   c.Query("related_id"),
	}
	if v := c.Query("resolved"); v != "" {
		resolved := v == "true"
		filter.Resolved = &resolved
	}
	if v := c.Query("read"); v != "" {
		read := v == "true"
		filter.Read = &read
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	alerts, err := h.alertSvc.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alerts)
}

func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.alertSvc.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alert)
}

func (h *AlertHandler) Delete(c *gin.Context) {
	if err := h.alertSvc.DeleteAlert(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *AlertHandler) MarkAsRead(c *gin.Context) {
	alert, err := h.alertSvc.MarkAsRead(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alert)
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.alertSvc.ResolveAlert(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alert)
}

func (h *AlertHandler) TakeAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	alert, err := h.alertSvc.TakeAction(c.Request.Context(), c.Param("id"), req.Action, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alert)
}

func (h *AlertHandler) Escalate(c *gin.Context) {
	var req struct {
		EscalateTo string `json:"escalate_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	alert, err := h.alertSvc.EscalateAlert(c.Request.Context(), c.Param("id"), req.EscalateTo)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alert)
}

func (h *AlertHandler) Unread(c *gin.Context) {
	alerts, err := h.alertSvc.GetUnreadAlerts(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alerts)
}

func (h *AlertHandler) Critical(c *gin.Context) {
	alerts, err := h.alertSvc.GetCriticalAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alerts)
}

func (h *AlertHandler) ForEntity(c *gin.Context) {
	alerts, err := h.alertSvc.GetEntityAlerts(c.Request.Context(), c.Param("type"), c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, alerts)
}

func (h *AlertHandler) Stats(c *gin.Context) {
	stats, err := h.alertSvc.GetAlertStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
