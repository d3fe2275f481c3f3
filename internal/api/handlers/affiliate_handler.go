package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// AffiliateHandler handles affiliate HTTP requests
type AffiliateHandler struct {
	affiliateSvc *services.AffiliateService
}

// NewAffiliateHandler creates a new affiliate handler
func NewAffiliateHandler(affiliateSvc *services.AffiliateService) *AffiliateHandler {
	return &AffiliateHandler{affiliateSvc: affiliateSvc}
}

// RegisterRoutes registers affiliate routes
func (h *AffiliateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	affiliates := rg.Group("/affiliates")
	{
		affiliates.POST("", h.Create)
		affiliates.GET("", h.List)
		affiliates.GET("/available", h.Available)
		affiliates.GET("/search", h.Search)
		affiliates.GET("/:id", h.Get)
		affiliates.PATCH("/:id", h.Update)
		affiliates.DELETE("/:id", h.Delete)
		affiliates.POST("/:id/approve", h.Approve)
		affiliates.POST("/:id/reject", h.Reject)
		affiliates.PUT("/:id/capacity", h.UpdateCapacity)
		affiliates.PUT("/:id/performance", h.UpdatePerformance)
	}
}

func (h *AffiliateHandler) Create(c *gin.Context) {
	var affiliate models.Affiliate
	if err := c.ShouldBindJSON(&affiliate); err != nil {
		respondBadRequest(c, err)
		return
	}

	created, err := h.affiliateSvc.CreateAffiliate(c.Request.Context(), &affiliate)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, created)
}

func (h *AffiliateHandler) List(c *gin.Context) {
	filter := repository.AffiliateFilter{
		Status:       models.AffiliateStatus(c.Query("status")),
		Type:         models.AffiliateType(c.Query("type")),
		Availability: models.Availability(c.Query("availability")),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	affiliates, err := h.affiliateSvc.ListAffiliates(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliates)
}

func (h *AffiliateHandler) Get(c *gin.Context) {
	affiliate, err := h.affiliateSvc.GetAffiliate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliate)
}

func (h *AffiliateHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondBadRequest(c, err)
		return
	}

	affiliate, err := h.affiliateSvc.UpdateAffiliate(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliate)
}

func (h *AffiliateHandler) Delete(c *gin.Context) {
	if err := h.affiliateSvc.DeleteAffiliate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *AffiliateHandler) Approve(c *gin.Context) {
	affiliate, err := h.affiliateSvc.ApproveAffiliate(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliate)
}

func (h *AffiliateHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	affiliate, err := h.affiliateSvc.RejectAffiliate(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliate)
}

func (h *AffiliateHandler) Available(c *gin.Context) {
	affiliates, err := h.affiliateSvc.GetAvailableAffiliates(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliates)
}

func (h *AffiliateHandler) Search(c *gin.Context) {
	criteria := services.AffiliateSearchCriteria{
		Availability: models.Availability(c.Query("availability")),
	}
	if cats := c.Query("categories"); cats != "" {
		criteria.ServiceCategories = strings.Split(cats, ",")
	}
	if geos := c.Query("regions"); geos != "" {
		criteria.GeographicPreferences = strings.Split(geos, ",")
	}
	if min := c.Query("min_rating"); min != "" {
		criteria.MinRating, _ = strconv.ParseFloat(min, 64)
	}

	affiliates, err := h.affiliateSvc.SearchAffiliates(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, affiliates)
}

func (h *AffiliateHandler) UpdateCapacity(c *gin.Context) {
	var req struct {
		CurrentLoad int `json:"current_load"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.affiliateSvc.UpdateCapacity(c.Request.Context(), c.Param("id"), req.CurrentLoad); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"updated": true})
}

func (h *AffiliateHandler) UpdatePerformance(c *gin.Context) {
	var req struct {
		Rating             *float64 `json:"rating"`
		OnTimeDelivery     *bool    `json:"on_time_delivery"`
		ClientSatisfaction *float64 `json:"client_satisfaction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	update := services.PerformanceUpdate{
		Rating:             req.Rating,
		OnTimeDelivery:     req.OnTimeDelivery,
		ClientSatisfaction: req.ClientSatisfaction,
	}
	if err := h.affiliateSvc.UpdatePerformance(c.Request.Context(), c.Param("id"), update); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"updated": true})
}
