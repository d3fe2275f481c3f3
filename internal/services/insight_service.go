package services

import (
	"context"

	"example.com/tbmnc/services/tracker/internal/ai"
	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
)

// InsightService fronts the AI analysis features with entity loading
type InsightService struct {
	aiSvc           *ai.Service
	supplierRepo    repository.SupplierRepository
	affiliateRepo   repository.AffiliateRepository
	deliverableRepo repository.DeliverableRepository
}

// NewInsightService creates a new insight service
func NewInsightService(
	aiSvc *ai.Service,
	supplierRepo repository.SupplierRepository,
	affiliateRepo repository.AffiliateRepository,
	deliverableRepo repository.DeliverableRepository,
) *InsightService {
	return &InsightService{
		aiSvc:           aiSvc,
		supplierRepo:    supplierRepo,
		affiliateRepo:   affiliateRepo,
		deliverableRepo: deliverableRepo,
	}
}

// AssessSupplierRisk assesses a supplier's qualification risk
func (s *InsightService) AssessSupplierRisk(ctx context.Context, supplierID string) (*ai.RiskAssessment, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return s.aiSvc.AssessSupplierRisk(ctx, supplier)
}

// RecommendAffiliates ranks active affiliates for a supplier
func (s *InsightService) RecommendAffiliates(ctx context.Context, supplierID string, limit int) ([]ai.AffiliateMatch, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	affiliates, err := s.affiliateRepo.List(ctx, repository.AffiliateFilter{Status: models.AffiliateActive})
	if err != nil {
		return nil, err
	}
	return s.aiSvc.RecommendAffiliates(ctx, supplier, affiliates, limit)
}

// ForecastTimeline projects a supplier's qualification completion
func (s *InsightService) ForecastTimeline(ctx context.Context, supplierID string) (*ai.TimelineForecast, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	deliverables, err := s.deliverableRepo.List(ctx, repository.DeliverableFilter{SupplierID: supplierID})
	if err != nil {
		return nil, err
	}
	return s.aiSvc.ForecastTimeline(ctx, supplier, deliverables)
}
