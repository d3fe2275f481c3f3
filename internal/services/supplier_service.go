package services

import (
	"context"
	"strings"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/search"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SupplierStats is the aggregate view over all suppliers
type SupplierStats struct {
	Total                int64                           `json:"total"`
	ByStatus             map[models.SupplierStatus]int64 `json:"by_status"`
	ByStage              map[int]int64                   `json:"by_stage"`
	ByRisk               map[models.RiskLevel]int64      `json:"by_risk"`
	AverageProgress      float64                         `json:"average_progress"`
	AverageDaysInProcess float64                         `json:"average_days_in_process"`
}

// SupplierService handles supplier qualification tracking
type SupplierService struct {
	repo   repository.SupplierRepository
	search *search.ElasticClient
}

// NewSupplierService creates a new supplier service
func NewSupplierService(repo repository.SupplierRepository, searchClient *search.ElasticClient) *SupplierService {
	return &SupplierService{
		repo:   repo,
		search: searchClient,
	}
}

// CreateSupplier registers a new supplier at the start of the pipeline
func (s *SupplierService) CreateSupplier(ctx context.Context, supplier *models.Supplier, userID string) (*models.Supplier, error) {
	supplier.ID = uuid.New().String()
	supplier.Status = models.SupplierPending
	supplier.CurrentStage = 1
	supplier.ProgressPercentage = 0
	supplier.DaysInCurrentStage = 0
	supplier.TotalDaysInProcess = 0
	if supplier.RiskLevel == "" {
		supplier.RiskLevel = models.RiskLow
	}
	if supplier.AssignedAffiliates == nil {
		supplier.AssignedAffiliates = []string{}
	}
	supplier.CreatedBy = userID
	supplier.LastModifiedBy = userID

	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, errors.Wrap(err, "failed to create supplier")
	}

	log.Info().
		Str("supplier_id", supplier.ID).
		Str("company", supplier.CompanyName).
		Msg("supplier created")

	s.indexSupplier(ctx, supplier)
	return supplier, nil
}

// GetSupplier fetches a supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	return s.repo.FindByID(ctx, id)
}

// ListSuppliers lists suppliers matching the filter
func (s *SupplierService) ListSuppliers(ctx context.Context, filter repository.SupplierFilter) ([]models.Supplier, error) {
	return s.repo.List(ctx, filter)
}

// UpdateSupplier applies profile changes to a supplier
func (s *SupplierService) UpdateSupplier(ctx context.Context, id string, updates map[string]interface{}, userID string) (*models.Supplier, error) {
	updates["last_modified_by"] = userID
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update supplier %s", id)
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexSupplier(ctx, supplier)
	return supplier, nil
}

// DeleteSupplier removes a supplier
func (s *SupplierService) DeleteSupplier(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete supplier %s", id)
	}
	if s.search.Enabled() {
		if err := s.search.DeleteSupplier(ctx, id); err != nil {
			log.Warn().Err(err).Str("supplier_id", id).Msg("failed to remove supplier from search index")
		}
	}
	log.Info().Str("supplier_id", id).Msg("supplier deleted")
	return nil
}

// UpdateStatus moves a supplier to a new qualification status
func (s *SupplierService) UpdateStatus(ctx context.Context, id string, status models.SupplierStatus, userID string) (*models.Supplier, error) {
	updates := map[string]interface{}{
		"status":           status,
		"last_modified_by": userID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update status for supplier %s", id)
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().Str("supplier_id", id).Str("status", string(status)).Msg("supplier status updated")
	s.indexSupplier(ctx, supplier)
	return supplier, nil
}

// UpdateStage moves a supplier to a new stage and resets the stage day counter
func (s *SupplierService) UpdateStage(ctx context.Context, id string, stage int, userID string) (*models.Supplier, error) {
	updates := map[string]interface{}{
		"current_stage":         stage,
		"days_in_current_stage": 0,
		"last_modified_by":      userID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update stage for supplier %s", id)
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().Str("supplier_id", id).Int("stage", stage).Msg("supplier stage updated")
	s.indexSupplier(ctx, supplier)
	return supplier, nil
}

// UpdateProgress sets the overall progress percentage, clamped to [0,100]
func (s *SupplierService) UpdateProgress(ctx context.Context, id string, percentage float64, userID string) (*models.Supplier, error) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	updates := map[string]interface{}{
		"progress_percentage": percentage,
		"last_modified_by":    userID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update progress for supplier %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateRiskLevel records an assessed risk level with its factors
func (s *SupplierService) UpdateRiskLevel(ctx context.Context, id string, level models.RiskLevel, factors []string, userID string) (*models.Supplier, error) {
	updates := map[string]interface{}{
		"risk_level":       level,
		"risk_factors":     factors,
		"last_modified_by": userID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update risk level for supplier %s", id)
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().Str("supplier_id", id).Str("risk_level", string(level)).Msg("supplier risk level updated")
	s.indexSupplier(ctx, supplier)
	return supplier, nil
}

// AssignAffiliate adds an affiliate to the supplier's assigned set.
// Assigning an already assigned affiliate is a no-op.
func (s *SupplierService) AssignAffiliate(ctx context.Context, supplierID, affiliateID, userID string) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	for _, id := range supplier.AssignedAffiliates {
		if id == affiliateID {
			return supplier, nil
		}
	}

	assigned := append(supplier.AssignedAffiliates, affiliateID)
	updates := map[string]interface{}{
		"assigned_affiliates": assigned,
		"last_modified_by":    userID,
	}
	if err := s.repo.Update(ctx, supplierID, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to assign affiliate to supplier %s", supplierID)
	}

	log.Info().
		Str("supplier_id", supplierID).
		Str("affiliate_id", affiliateID).
		Msg("affiliate assigned to supplier")
	return s.repo.FindByID(ctx, supplierID)
}

// RemoveAffiliate removes an affiliate from the supplier's assigned set
func (s *SupplierService) RemoveAffiliate(ctx context.Context, supplierID, affiliateID, userID string) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	assigned := make([]string, 0, len(supplier.AssignedAffiliates))
	for _, id := range supplier.AssignedAffiliates {
		if id != affiliateID {
			assigned = append(assigned, id)
		}
	}

	updates := map[string]interface{}{
		"assigned_affiliates": assigned,
		"last_modified_by":    userID,
	}
	if err := s.repo.Update(ctx, supplierID, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to remove affiliate from supplier %s", supplierID)
	}

	log.Info().
		Str("supplier_id", supplierID).
		Str("affiliate_id", affiliateID).
		Msg("affiliate removed from supplier")
	return s.repo.FindByID(ctx, supplierID)
}

// CompleteOnboarding marks onboarding as finished
func (s *SupplierService) CompleteOnboarding(ctx context.Context, id string, userID string) (*models.Supplier, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"onboarding_completed":    true,
		"onboarding_completed_at": now,
		"last_modified_by":        userID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to complete onboarding for supplier %s", id)
	}

	log.Info().Str("supplier_id", id).Msg("supplier onboarding completed")
	return s.repo.FindByID(ctx, id)
}

// GetSupplierStats aggregates counts and averages over all suppliers
func (s *SupplierService) GetSupplierStats(ctx context.Context) (*SupplierStats, error) {
	suppliers, err := s.repo.List(ctx, repository.SupplierFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load suppliers for stats")
	}

	stats := &SupplierStats{
		Total:    int64(len(suppliers)),
		ByStatus: make(map[models.SupplierStatus]int64),
		ByStage:  make(map[int]int64),
		ByRisk:   make(map[models.RiskLevel]int64),
	}

	var progressSum, daysSum float64
	for _, sup := range suppliers {
		stats.ByStatus[sup.Status]++
		stats.ByStage[sup.CurrentStage]++
		stats.ByRisk[sup.RiskLevel]++
		progressSum += sup.ProgressPercentage
		daysSum += float64(sup.TotalDaysInProcess)
	}

	if len(suppliers) > 0 {
		stats.AverageProgress = progressSum / float64(len(suppliers))
		stats.AverageDaysInProcess = daysSum / float64(len(suppliers))
	}

	return stats, nil
}

// SearchSuppliers runs a full-text search over the supplier index.
// Falls back to a database scan when the search client is not configured.
func (s *SupplierService) SearchSuppliers(ctx context.Context, term string, size int) ([]map[string]interface{}, error) {
	if size <= 0 {
		size = 20
	}
	if s.search.Enabled() {
		return s.search.SearchSuppliers(ctx, term, size)
	}

	suppliers, err := s.repo.List(ctx, repository.SupplierFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search suppliers")
	}

	needle := strings.ToLower(term)
	results := make([]map[string]interface{}, 0, size)
	for _, sup := range suppliers {
		if len(results) >= size {
			break
		}
		haystack := strings.ToLower(strings.Join(append([]string{
			sup.CompanyName, sup.LegalName, sup.ContactPerson,
		}, append(sup.Categories, sup.Tags...)...), " "))
		if !strings.Contains(haystack, needle) {
			continue
		}
		results = append(results, map[string]interface{}{
			"id":            sup.ID,
			"company_name":  sup.CompanyName,
			"status":        sup.Status,
			"current_stage": sup.CurrentStage,
		})
	}
	return results, nil
}

// UpdateDaysInProcess advances the day counters for every active
// supplier. Runs once per day from the worker.
func (s *SupplierService) UpdateDaysInProcess(ctx context.Context) (int, error) {
	suppliers, err := s.repo.List(ctx, repository.SupplierFilter{Status: models.SupplierActive})
	if err != nil {
		return 0, errors.Wrap(err, "failed to load active suppliers")
	}

	for _, sup := range suppliers {
		updates := map[string]interface{}{
			"days_in_current_stage": sup.DaysInCurrentStage + 1,
			"total_days_in_process": sup.TotalDaysInProcess + 1,
		}
		if err := s.repo.Update(ctx, sup.ID, updates); err != nil {
			log.Error().Err(err).Str("supplier_id", sup.ID).Msg("failed to advance day counters")
		}
	}

	log.Info().Int("count", len(suppliers)).Msg("advanced supplier day counters")
	return len(suppliers), nil
}

// indexSupplier pushes the supplier to the search index, best effort
func (s *SupplierService) indexSupplier(ctx context.Context, supplier *models.Supplier) {
	if !s.search.Enabled() {
		return
	}
	if err := s.search.IndexSupplier(ctx, supplier); err != nil {
		log.Warn().Err(err).Str("supplier_id", supplier.ID).Msg("failed to index supplier")
	}
}
