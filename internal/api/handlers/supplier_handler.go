package handlers

import (
	"net/http"
	"strconv"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// SupplierHandler handles supplier HTTP requests
type SupplierHandler struct {
	supplierSvc *services.SupplierService
	aiSvc       *services.InsightService
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(supplierSvc *services.SupplierService, aiSvc *services.InsightService) *SupplierHandler {
	return &SupplierHandler{supplierSvc: supplierSvc, aiSvc: aiSvc}
}

// RegisterRoutes registers supplier routes
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	suppliers := rg.Group("/suppliers")
	{
		suppliers.POST("", h.Create)
		suppliers.GET("", h.List)
		suppliers.GET("/stats", h.Stats)
		suppliers.GET("/search", h.Search)
		suppliers.GET("/:id", h.Get)
		suppliers.PATCH("/:id", h.Update)
		suppliers.DELETE("/:id", h.Delete)
		suppliers.PUT("/:id/status", h.UpdateStatus)
		suppliers.PUT("/:id/stage", h.UpdateStage)
		suppliers.PUT("/:id/progress", h.UpdateProgress)
		suppliers.PUT("/:id/risk", h.UpdateRisk)
		suppliers.POST("/:id/affiliates/:affiliateId", h.AssignAffiliate)
		suppliers.DELETE("/:id/affiliates/:affiliateId", h.RemoveAffiliate)
		suppliers.POST("/:id/onboarding/complete", h.CompleteOnboarding)
		suppliers.GET("/:id/risk-assessment", h.RiskAssessment)
		suppliers.GET("/:id/recommendations", h.Recommendations)
		suppliers.GET("/:id/timeline-forecast", h.TimelineForecast)
	}
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.supplierSvc.CreateSupplier(c.Request.Context(), &supplier, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

func (h *SupplierHandler) List(c *gin.Context) {
	filter := repository.SupplierFilter{
		Status:    models.SupplierStatus(c.Query("status")),
		RiskLevel: models.RiskLevel(c.Query("risk_level")),
		Category:  c.Query("category"),
	}
	if stage := c.Query("stage"); stage != "" {
		filter.Stage = stage
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	suppliers, err := h.supplierSvc.ListSuppliers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, suppliers)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	supplier, err := h.supplierSvc.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondBadRequest(c, err)
		return
	}

	supplier, err := h.supplierSvc.UpdateSupplier(c.Request.Context(), c.Param("id"), updates, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.supplierSvc.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *SupplierHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.SupplierStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	supplier, err := h.supplierSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) UpdateStage(c *gin.Context) {
	var req struct {
		Stage int `json:"stage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	supplier, err := h.supplierSvc.UpdateStage(c.Request.Context(), c.Param("id"), req.Stage, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) UpdateProgress(c *gin.Context) {
	var req struct {
		Percentage float64 `json:"percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	supplier, err := h.supplierSvc.UpdateProgress(c.Request.Context(), c.Param("id"), req.Percentage, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) UpdateRisk(c *gin.Context) {
	var req struct {
		RiskLevel   models.RiskLevel `json:"risk_level" binding:"required"`
		RiskFactors []string         `json:"risk_factors"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	supplier, err := h.supplierSvc.UpdateRiskLevel(c.Request.Context(), c.Param("id"), req.RiskLevel, req.RiskFactors, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) AssignAffiliate(c *gin.Context) {
	supplier, err := h.supplierSvc.AssignAffiliate(c.Request.Context(), c.Param("id"), c.Param("affiliateId"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) RemoveAffiliate(c *gin.Context) {
	supplier, err := h.supplierSvc.RemoveAffiliate(c.Request.Context(), c.Param("id"), c.Param("affiliateId"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) CompleteOnboarding(c *gin.Context) {
	supplier, err := h.supplierSvc.CompleteOnboarding(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, supplier)
}

func (h *SupplierHandler) Stats(c *gin.Context) {
	stats, err := h.supplierSvc.GetSupplierStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

func (h *SupplierHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	docs, err := h.supplierSvc.SearchSuppliers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, docs)
}

func (h *SupplierHandler) RiskAssessment(c *gin.Context) {
	assessment, err := h.aiSvc.AssessSupplierRisk(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, assessment)
}

func (h *SupplierHandler) Recommendations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	matches, err := h.aiSvc.RecommendAffiliates(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, matches)
}

func (h *SupplierHandler) TimelineForecast(c *gin.Context) {
	forecast, err := h.aiSvc.ForecastTimeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, forecast)
}

// callerID identifies the acting user from the request headers
func callerID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}
