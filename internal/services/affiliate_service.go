package services

import (
	"context"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AffiliateSearchCriteria filters affiliates beyond the repository filter
type AffiliateSearchCriteria struct {
	ServiceCategories     []string
	MinRating             float64
	Availability          models.Availability
	GeographicPreferences []string
}

// PerformanceUpdate carries the optional metric inputs for one review
type PerformanceUpdate struct {
	Rating             *float64
	OnTimeDelivery     *bool
	ClientSatisfaction *float64
}

// AffiliateService handles affiliate lifecycle and capacity tracking
type AffiliateService struct {
	repo repository.AffiliateRepository
}

// NewAffiliateService creates a new affiliate service
func NewAffiliateService(repo repository.AffiliateRepository) *AffiliateService {
	return &AffiliateService{repo: repo}
}

// AvailabilityFor derives the capacity tier from the load ratio
func AvailabilityFor(currentLoad, maxCapacity int) models.Availability {
	if maxCapacity <= 0 {
		return models.AvailabilityUnavailable
	}
	utilization := float64(currentLoad) / float64(maxCapacity)
	switch {
	case utilization >= 1:
		return models.AvailabilityUnavailable
	case utilization >= 0.8:
		return models.AvailabilityLimited
	default:
		return models.AvailabilityAvailable
	}
}

// CreateAffiliate registers a new affiliate pending approval
func (s *AffiliateService) CreateAffiliate(ctx context.Context, affiliate *models.Affiliate) (*models.Affiliate, error) {
	now := time.Now()
	affiliate.ID = uuid.New().String()
	affiliate.Status = models.AffiliatePendingApproval
	affiliate.RegistrationDate = &now
	affiliate.Assignments = models.AssignmentLists{
		Current: []string{},
		Past:    []string{},
	}
	affiliate.Performance = models.Performance{}
	if affiliate.Capacity.MaxCapacity <= 0 {
		affiliate.Capacity.MaxCapacity = 5
	}
	affiliate.Capacity.CurrentLoad = 0
	affiliate.Capacity.Availability = AvailabilityFor(0, affiliate.Capacity.MaxCapacity)

	if err := s.repo.Create(ctx, affiliate); err != nil {
		return nil, errors.Wrap(err, "failed to create affiliate")
	}

	log.Info().
		Str("affiliate_id", affiliate.ID).
		Str("name", affiliate.Name).
		Msg("affiliate created")
	return affiliate, nil
}

// GetAffiliate fetches an affiliate by ID
func (s *AffiliateService) GetAffiliate(ctx context.Context, id string) (*models.Affiliate, error) {
	return s.repo.FindByID(ctx, id)
}

// ListAffiliates lists affiliates matching the filter
func (s *AffiliateService) ListAffiliates(ctx context.Context, filter repository.AffiliateFilter) ([]models.Affiliate, error) {
	return s.repo.List(ctx, filter)
}

// UpdateAffiliate applies profile changes to an affiliate
func (s *AffiliateService) UpdateAffiliate(ctx context.Context, id string, updates map[string]interface{}) (*models.Affiliate, error) {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update affiliate %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteAffiliate removes an affiliate
func (s *AffiliateService) DeleteAffiliate(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete affiliate %s", id)
	}
	log.Info().Str("affiliate_id", id).Msg("affiliate deleted")
	return nil
}

// ApproveAffiliate activates a pending affiliate
func (s *AffiliateService) ApproveAffiliate(ctx context.Context, id, approvedBy string) (*models.Affiliate, error) {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	affiliate.Status = models.AffiliateActive
	affiliate.ApprovalStatus = models.ApprovalStatus{
		Approved:   true,
		ApprovedBy: approvedBy,
		ApprovedAt: &now,
	}

	if err := s.repo.Save(ctx, affiliate); err != nil {
		return nil, errors.Wrapf(err, "failed to approve affiliate %s", id)
	}

	log.Info().Str("affiliate_id", id).Str("approved_by", approvedBy).Msg("affiliate approved")
	return affiliate, nil
}

// RejectAffiliate declines a pending affiliate with a reason
func (s *AffiliateService) RejectAffiliate(ctx context.Context, id, reason string) (*models.Affiliate, error) {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	affiliate.Status = models.AffiliateInactive
	affiliate.ApprovalStatus = models.ApprovalStatus{
		Approved:        false,
		RejectionReason: reason,
	}

	if err := s.repo.Save(ctx, affiliate); err != nil {
		return nil, errors.Wrapf(err, "failed to reject affiliate %s", id)
	}

	log.Info().Str("affiliate_id", id).Msg("affiliate rejected")
	return affiliate, nil
}

// GetAvailableAffiliates lists active affiliates with spare capacity
func (s *AffiliateService) GetAvailableAffiliates(ctx context.Context, serviceCategory string) ([]models.Affiliate, error) {
	affiliates, err := s.repo.List(ctx, repository.AffiliateFilter{Status: models.AffiliateActive})
	if err != nil {
		return nil, err
	}

	var available []models.Affiliate
	for _, a := range affiliates {
		if a.Capacity.CurrentLoad >= a.Capacity.MaxCapacity {
			continue
		}
		if serviceCategory != "" && !contains(a.ServiceOfferings.Categories, serviceCategory) {
			continue
		}
		available = append(available, a)
	}
	return available, nil
}

// UpdateCapacity sets the current load and the derived availability in
// a single write so the two never diverge.
func (s *AffiliateService) UpdateCapacity(ctx context.Context, id string, currentLoad int) error {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	capacity := affiliate.Capacity
	capacity.CurrentLoad = currentLoad
	capacity.Availability = AvailabilityFor(currentLoad, capacity.MaxCapacity)

	if err := s.repo.Update(ctx, id, map[string]interface{}{"capacity": capacity}); err != nil {
		return errors.Wrapf(err, "failed to update capacity for affiliate %s", id)
	}

	log.Info().
		Str("affiliate_id", id).
		Int("current_load", currentLoad).
		Int("max_capacity", capacity.MaxCapacity).
		Str("availability", string(capacity.Availability)).
		Msg("affiliate capacity updated")
	return nil
}

// UpdatePerformance folds review metrics into the running averages
func (s *AffiliateService) UpdatePerformance(ctx context.Context, id string, update PerformanceUpdate) error {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	perf := affiliate.Performance

	if update.Rating != nil {
		totalRatings := perf.TotalRatings + 1
		currentTotal := perf.AverageRating * float64(perf.TotalRatings)
		perf.AverageRating = (currentTotal + *update.Rating) / float64(totalRatings)
		perf.TotalRatings = totalRatings
	}

	if update.OnTimeDelivery != nil {
		totalDeliveries := float64(affiliate.Assignments.TotalCompleted)
		currentOnTime := perf.OnTimeDeliveryRate * totalDeliveries
		if *update.OnTimeDelivery {
			currentOnTime++
		}
		perf.OnTimeDeliveryRate = currentOnTime / (totalDeliveries + 1)
	}

	if update.ClientSatisfaction != nil {
		perf.ClientSatisfactionScore = *update.ClientSatisfaction
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"performance": perf}); err != nil {
		return errors.Wrapf(err, "failed to update performance for affiliate %s", id)
	}

	log.Info().Str("affiliate_id", id).Msg("affiliate performance updated")
	return nil
}

// AddAssignment records a new engagement with a supplier. The load and
// availability are recomputed from the resulting list in the same write.
func (s *AffiliateService) AddAssignment(ctx context.Context, id, supplierID string) error {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	assignments := affiliate.Assignments
	if contains(assignments.Current, supplierID) {
		return nil
	}
	assignments.Current = append(assignments.Current, supplierID)
	assignments.TotalActive = len(assignments.Current)

	capacity := affiliate.Capacity
	capacity.CurrentLoad = len(assignments.Current)
	capacity.Availability = AvailabilityFor(capacity.CurrentLoad, capacity.MaxCapacity)

	updates := map[string]interface{}{
		"assignments": assignments,
		"capacity":    capacity,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return errors.Wrapf(err, "failed to add assignment for affiliate %s", id)
	}

	log.Info().
		Str("affiliate_id", id).
		Str("supplier_id", supplierID).
		Int("current_load", capacity.CurrentLoad).
		Msg("assignment added for affiliate")
	return nil
}

// CompleteAssignment moves a supplier engagement from current to past
// and frees the corresponding capacity.
func (s *AffiliateService) CompleteAssignment(ctx context.Context, id, supplierID string) error {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	assignments := affiliate.Assignments
	current := make([]string, 0, len(assignments.Current))
	for _, sid := range assignments.Current {
		if sid != supplierID {
			current = append(current, sid)
		}
	}
	assignments.Current = current
	assignments.Past = append(assignments.Past, supplierID)
	assignments.TotalActive = len(assignments.Current)
	assignments.TotalCompleted = len(assignments.Past)

	capacity := affiliate.Capacity
	capacity.CurrentLoad = len(assignments.Current)
	capacity.Availability = AvailabilityFor(capacity.CurrentLoad, capacity.MaxCapacity)

	updates := map[string]interface{}{
		"assignments": assignments,
		"capacity":    capacity,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return errors.Wrapf(err, "failed to complete assignment for affiliate %s", id)
	}

	log.Info().
		Str("affiliate_id", id).
		Str("supplier_id", supplierID).
		Int("current_load", capacity.CurrentLoad).
		Msg("assignment completed for affiliate")
	return nil
}

// SearchAffiliates filters active affiliates by service and performance criteria
func (s *AffiliateService) SearchAffiliates(ctx context.Context, criteria AffiliateSearchCriteria) ([]models.Affiliate, error) {
	affiliates, err := s.repo.List(ctx, repository.AffiliateFilter{
		Status:       models.AffiliateActive,
		Availability: criteria.Availability,
	})
	if err != nil {
		return nil, err
	}

	var matched []models.Affiliate
	for _, a := range affiliates {
		if len(criteria.ServiceCategories) > 0 && !containsAny(a.ServiceOfferings.Categories, criteria.ServiceCategories) {
			continue
		}
		if criteria.MinRating > 0 && a.Performance.AverageRating < criteria.MinRating {
			continue
		}
		if len(criteria.GeographicPreferences) > 0 && !containsAny(a.Capacity.GeographicPreferences, criteria.GeographicPreferences) {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

// RecordActivity stamps the affiliate's last activity time
func (s *AffiliateService) RecordActivity(ctx context.Context, id string) error {
	return s.repo.Update(ctx, id, map[string]interface{}{"last_activity": time.Now()})
}

// AffiliateUtilization is the capacity rollup over active affiliates
type AffiliateUtilization struct {
	Active         int64                         `json:"active"`
	TotalCapacity  int64                         `json:"total_capacity"`
	TotalLoad      int64                         `json:"total_load"`
	UtilizationPct float64                       `json:"utilization_pct"`
	ByAvailability map[models.Availability]int64 `json:"by_availability"`
}

// GetUtilization aggregates capacity usage across active affiliates
func (s *AffiliateService) GetUtilization(ctx context.Context) (*AffiliateUtilization, error) {
	affiliates, err := s.repo.List(ctx, repository.AffiliateFilter{Status: models.AffiliateActive})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load affiliates for utilization")
	}

	util := &AffiliateUtilization{
		Active:         int64(len(affiliates)),
		ByAvailability: make(map[models.Availability]int64),
	}
	for _, a := range affiliates {
		util.TotalCapacity += int64(a.Capacity.MaxCapacity)
		util.TotalLoad += int64(a.Capacity.CurrentLoad)
		util.ByAvailability[a.Capacity.Availability]++
	}
	if util.TotalCapacity > 0 {
		util.UtilizationPct = 100 * float64(util.TotalLoad) / float64(util.TotalCapacity)
	}
	return util, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsAny(haystack, needles []string) bool {
	for _, n := range needles {
		if contains(haystack, n) {
			return true
		}
	}
	return false
}
