package handlers

import (
	"net/http"
	"strconv"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// DeliverableHandler handles deliverable HTTP requests
type DeliverableHandler struct {
	deliverableSvc *services.DeliverableService
}

// NewDeliverableHandler creates a new deliverable handler
func NewDeliverableHandler(deliverableSvc *services.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{deliverableSvc: deliverableSvc}
}

// RegisterRoutes registers deliverable routes
func (h *DeliverableHandler) RegisterRoutes(rg *gin.RouterGroup) {
	deliverables := rg.Group("/deliverables")
	{
		deliverables.POST("", h.Create)
		deliverables.GET("", h.List)
		deliverables.GET("/approaching-deadlines", h.ApproachingDeadlines)
		deliverables.GET("/:id", h.Get)
		deliverables.PATCH("/:id", h.Update)
		deliverables.DELETE("/:id", h.Delete)
		deliverables.PUT("/:id/status", h.UpdateStatus)
		deliverables.PUT("/:id/progress", h.UpdateProgress)
		deliverables.POST("/:id/milestones/:milestoneId/complete", h.CompleteMilestone)
		deliverables.POST("/:id/notes", h.AddNote)
		deliverables.POST("/:id/comments", h.AddComment)
	}
	rg.GET("/suppliers/:id/deliverable-stats", h.SupplierStats)
	rg.GET("/affiliates/:id/deliverable-stats", h.AffiliateStats)
}

func (h *DeliverableHandler) Create(c *gin.Context) {
	var deliverable models.Deliverable
	if err := c.ShouldBindJSON(&deliverable); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.deliverableSvc.CreateDeliverable(c.Request.Context(), &deliverable, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

func (h *DeliverableHandler) List(c *gin.Context) {
	filter := repository.DeliverableFilter{
		SupplierID:   c.Query("supplier_id"),
		AffiliateID:  c.Query("affiliate_id"),
		AssignmentID: c.Query("assignment_id"),
		Status:       models.DeliverableStatus(c.Query("status")),
		Priority:     models.Priority(c.Query("priority")),
		Category:     c.Query("category"),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	deliverables, err := h.deliverableSvc.ListDeliverables(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverables)
}

func (h *DeliverableHandler) Get(c *gin.Context) {
	deliverable, err := h.deliverableSvc.GetDeliverable(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverable)
}

func (h *DeliverableHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondBadRequest(c, err)
		return
	}

	deliverable, err := h.deliverableSvc.UpdateDeliverable(c.Request.Context(), c.Param("id"), updates, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverable)
}

func (h *DeliverableHandler) Delete(c *gin.Context) {
	if err := h.deliverableSvc.DeleteDeliverable(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *DeliverableHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.DeliverableStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	deliverable, err := h.deliverableSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverable)
}

func (h *DeliverableHandler) UpdateProgress(c *gin.Context) {
	var req struct {
		Percentage float64 `json:"percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	deliverable, err := h.deliverableSvc.UpdateProgress(c.Request.Context(), c.Param("id"), req.Percentage, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverable)
}

func (h *DeliverableHandler) CompleteMilestone(c *gin.Context) {
	deliverable, err := h.deliverableSvc.CompleteMilestone(c.Request.Context(), c.Param("id"), c.Param("milestoneId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverable)
}

func (h *DeliverableHandler) AddNote(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
		Private bool   `json:"private"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.deliverableSvc.AddNote(c.Request.Context(), c.Param("id"), req.Content, callerID(c), req.Private); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"added": true})
}

func (h *DeliverableHandler) AddComment(c *gin.Context) {
	var req struct {
		Content  string   `json:"content" binding:"required"`
		Mentions []string `json:"mentions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.deliverableSvc.AddComment(c.Request.Context(), c.Param("id"), req.Content, callerID(c), req.Mentions); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"added": true})
}

func (h *DeliverableHandler) ApproachingDeadlines(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "3"))
	if err != nil || days <= 0 {
		days = 3
	}

	deliverables, err := h.deliverableSvc.GetApproachingDeadlines(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliverables)
}

func (h *DeliverableHandler) SupplierStats(c *gin.Context) {
	stats, err := h.deliverableSvc.GetSupplierStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

func (h *DeliverableHandler) AffiliateStats(c *gin.Context) {
	stats, err := h.deliverableSvc.GetAffiliateStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
