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

// AssignmentHandler handles assignment HTTP requests
type AssignmentHandler struct {
	assignmentSvc *services.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentSvc *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// RegisterRoutes registers assignment routes
func (h *AssignmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	assignments := rg.Group("/assignments")
	{
		assignments.POST("", h.Create)
		assignments.GET("", h.List)
		assignments.GET("/stats", h.Stats)
		assignments.POST("/engage", h.Engage)
		assignments.GET("/:id", h.Get)
		assignments.PATCH("/:id", h.Update)
		assignments.DELETE("/:id", h.Delete)
		assignments.POST("/:id/approve", h.Approve)
		assignments.POST("/:id/complete", h.Complete)
		assignments.POST("/:id/cancel", h.Cancel)
		assignments.POST("/:id/deliverables/:deliverableId", h.AddDeliverable)
		assignments.POST("/:id/refresh-progress", h.RefreshProgress)
		assignments.PUT("/:id/financials", h.UpdateFinancials)
		assignments.PUT("/:id/performance", h.UpdatePerformance)
		assignments.POST("/:id/meeting-notes", h.AddMeetingNote)
		assignments.PUT("/:id/next-meeting", h.ScheduleMeeting)
	}
	rg.GET("/suppliers/:id/active-assignments", h.SupplierActive)
	rg.GET("/affiliates/:id/active-assignments", h.AffiliateActive)
}

func (h *AssignmentHandler) Create(c *gin.Context) {
	var assignment models.Assignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.assignmentSvc.CreateAssignment(c.Request.Context(), &assignment, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

func (h *AssignmentHandler) Engage(c *gin.Context) {
	var req struct {
		SupplierID  string `json:"supplier_id" binding:"required"`
		AffiliateID string `json:"affiliate_id" binding:"required"`
		Title       string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	assignment, err := h.assignmentSvc.EngageAffiliate(c.Request.Context(), req.SupplierID, req.AffiliateID, req.Title, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) List(c *gin.Context) {
	filter := repository.AssignmentFilter{
		SupplierID:  c.Query("supplier_id"),
		AffiliateID: c.Query("affiliate_id"),
		Status:      models.AssignmentStatus(c.Query("status")),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	assignments, err := h.assignmentSvc.ListAssignments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.assignmentSvc.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignment)
}

func (h *AssignmentHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondBadRequest(c, err)
		return
	}

	assignment, err := h.assignmentSvc.UpdateAssignment(c.Request.Context(), c.Param("id"), updates, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignment)
}

func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignmentSvc.DeleteAssignment(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *AssignmentHandler) Approve(c *gin.Context) {
	assignment, err := h.assignmentSvc.ApproveAssignment(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignment)
}

func (h *AssignmentHandler) Complete(c *gin.Context) {
	assignment, err := h.assignmentSvc.CompleteAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignment)
}

func (h *AssignmentHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	assignment, err := h.assignmentSvc.CancelAssignment(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignment)
}

func (h *AssignmentHandler) AddDeliverable(c *gin.Context) {
	if err := h.assignmentSvc.AddDeliverable(c.Request.Context(), c.Param("id"), c.Param("deliverableId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"added": true})
}

func (h *AssignmentHandler) RefreshProgress(c *gin.Context) {
	assignment, err := h.assignmentSvc.RefreshDeliverableProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignment)
}

func (h *AssignmentHandler) UpdateFinancials(c *gin.Context) {
	var req struct {
		BudgetSpent *float64        `json:"budget_spent"`
		Invoice     *models.Invoice `json:"invoice"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	update := services.FinancialUpdate{
		BudgetSpent: req.BudgetSpent,
		Invoice:     req.Invoice,
	}
	if err := h.assignmentSvc.UpdateFinancials(c.Request.Context(), c.Param("id"), update); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"updated": true})
}

func (h *AssignmentHandler) UpdatePerformance(c *gin.Context) {
	var req struct {
		OnTrack     *bool            `json:"on_track"`
		IssuesCount *int             `json:"issues_count"`
		RiskLevel   models.RiskLevel `json:"risk_level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	update := services.AssignmentPerformanceUpdate{
		OnTrack:     req.OnTrack,
		IssuesCount: req.IssuesCount,
		RiskLevel:   req.RiskLevel,
	}
	if err := h.assignmentSvc.UpdatePerformance(c.Request.Context(), c.Param("id"), update); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"updated": true})
}

func (h *AssignmentHandler) AddMeetingNote(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.assignmentSvc.AddMeetingNote(c.Request.Context(), c.Param("id"), req.Content, callerID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"added": true})
}

func (h *AssignmentHandler) ScheduleMeeting(c *gin.Context) {
	var req struct {
		At time.Time `json:"at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.assignmentSvc.ScheduleNextMeeting(c.Request.Context(), c.Param("id"), req.At); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"scheduled": true})
}

func (h *AssignmentHandler) Stats(c *gin.Context) {
	filter := repository.AssignmentFilter{
		SupplierID:  c.Query("supplier_id"),
		AffiliateID: c.Query("affiliate_id"),
	}
	stats, err := h.assignmentSvc.GetAssignmentStats(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

func (h *AssignmentHandler) SupplierActive(c *gin.Context) {
	assignments, err := h.assignmentSvc.GetSupplierActiveAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignments)
}

func (h *AssignmentHandler) AffiliateActive(c *gin.Context) {
	assignments, err := h.assignmentSvc.GetAffiliateActiveAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assignments)
}
