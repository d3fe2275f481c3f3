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

// AssignmentStats aggregates assignment counts and health
type AssignmentStats struct {
	Total             int     `json:"total"`
	Active            int     `json:"active"`
	Completed         int     `json:"completed"`
	Cancelled         int     `json:"cancelled"`
	Pending           int     `json:"pending"`
	AverageProgress   float64 `json:"average_progress"`
	OnTrackPercentage float64 `json:"on_track_percentage"`
}

// FinancialUpdate carries optional billing changes
type FinancialUpdate struct {
	BudgetSpent *float64
	Invoice     *models.Invoice
}

// AssignmentPerformanceUpdate carries optional health changes
type AssignmentPerformanceUpdate struct {
	OnTrack     *bool
	IssuesCount *int
	RiskLevel   models.RiskLevel
}

// AssignmentService pairs suppliers with affiliates and tracks the
// engagement through completion.
type AssignmentService struct {
	repo            repository.AssignmentRepository
	deliverableRepo repository.DeliverableRepository
	supplierSvc     *SupplierService
	affiliateSvc    *AffiliateService
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	repo repository.AssignmentRepository,
	deliverableRepo repository.DeliverableRepository,
	supplierSvc *SupplierService,
	affiliateSvc *AffiliateService,
) *AssignmentService {
	return &AssignmentService{
		repo:            repo,
		deliverableRepo: deliverableRepo,
		supplierSvc:     supplierSvc,
		affiliateSvc:    affiliateSvc,
	}
}

// CreateAssignment opens a pending engagement and reserves affiliate capacity
func (s *AssignmentService) CreateAssignment(ctx context.Context, assignment *models.Assignment, userID string) (*models.Assignment, error) {
	now := time.Now()
	assignment.ID = uuid.New().String()
	assignment.Status = models.AssignmentPending
	assignment.Deliverables = []string{}
	assignment.CompletedDeliverables = 0
	assignment.TotalDeliverables = 0
	assignment.Financial.BudgetSpent = 0
	if assignment.Financial.BillingType == "" {
		assignment.Financial.BillingType = "hourly"
	}
	assignment.Financial.Invoices = []models.Invoice{}
	assignment.Performance = models.AssignmentPerformance{
		OnTrack:   true,
		RiskLevel: models.RiskLow,
	}
	assignment.LastContact = &now
	assignment.MeetingNotes = []models.Note{}
	assignment.CreatedBy = userID
	assignment.LastModifiedBy = userID

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, errors.Wrap(err, "failed to create assignment")
	}

	if assignment.AffiliateID != "" {
		if err := s.affiliateSvc.AddAssignment(ctx, assignment.AffiliateID, assignment.SupplierID); err != nil {
			log.Error().Err(err).
				Str("assignment_id", assignment.ID).
				Str("affiliate_id", assignment.AffiliateID).
				Msg("failed to reserve affiliate capacity")
		}
	}

	log.Info().
		Str("assignment_id", assignment.ID).
		Str("supplier_id", assignment.SupplierID).
		Str("affiliate_id", assignment.AffiliateID).
		Msg("assignment created")
	return assignment, nil
}

// EngageAffiliate creates an assignment and links the affiliate to the
// supplier's assigned set in one operation.
func (s *AssignmentService) EngageAffiliate(ctx context.Context, supplierID, affiliateID, title, userID string) (*models.Assignment, error) {
	affiliate, err := s.affiliateSvc.GetAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate.Capacity.CurrentLoad >= affiliate.Capacity.MaxCapacity {
		return nil, errors.Wrapf(ErrInvalidState, "affiliate %s has no spare capacity", affiliateID)
	}

	assignment := &models.Assignment{
		SupplierID:  supplierID,
		AffiliateID: affiliateID,
		Title:       title,
		Priority:    models.PriorityMedium,
	}
	created, err := s.CreateAssignment(ctx, assignment, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.supplierSvc.AssignAffiliate(ctx, supplierID, affiliateID, userID); err != nil {
		log.Error().Err(err).
			Str("supplier_id", supplierID).
			Str("affiliate_id", affiliateID).
			Msg("failed to link affiliate to supplier")
	}

	return created, nil
}

// GetAssignment fetches an assignment by ID
func (s *AssignmentService) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	return s.repo.FindByID(ctx, id)
}

// ListAssignments lists assignments matching the filter
func (s *AssignmentService) ListAssignments(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	return s.repo.List(ctx, filter)
}

// UpdateAssignment applies changes to an assignment
func (s *AssignmentService) UpdateAssignment(ctx context.Context, id string, updates map[string]interface{}, userID string) (*models.Assignment, error) {
	updates["last_modified_by"] = userID
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update assignment %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteAssignment removes an assignment and releases affiliate capacity
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id string) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if assignment.AffiliateID != "" {
		if err := s.affiliateSvc.CompleteAssignment(ctx, assignment.AffiliateID, assignment.SupplierID); err != nil {
			log.Error().Err(err).Str("assignment_id", id).Msg("failed to release affiliate capacity")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete assignment %s", id)
	}
	log.Info().Str("assignment_id", id).Msg("assignment deleted")
	return nil
}

// ApproveAssignment activates a pending assignment. Activation is the
// only path from pending to active.
func (s *AssignmentService) ApproveAssignment(ctx context.Context, id, approvedBy string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentPending {
		return nil, errors.Wrapf(ErrInvalidState, "assignment %s is %s", id, assignment.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.AssignmentActive,
		"approved_by": approvedBy,
		"approved_at": now,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to approve assignment %s", id)
	}

	log.Info().Str("assignment_id", id).Str("approved_by", approvedBy).Msg("assignment approved")
	return s.repo.FindByID(ctx, id)
}

// CompleteAssignment closes an engagement and releases affiliate capacity
func (s *AssignmentService) CompleteAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.AssignmentCompleted,
		"completed_date": now,
		"end_date":       now,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to complete assignment %s", id)
	}

	if assignment.AffiliateID != "" {
		if err := s.affiliateSvc.CompleteAssignment(ctx, assignment.AffiliateID, assignment.SupplierID); err != nil {
			log.Error().Err(err).Str("assignment_id", id).Msg("failed to release affiliate capacity")
		}
	}

	log.Info().Str("assignment_id", id).Msg("assignment completed")
	return s.repo.FindByID(ctx, id)
}

// CancelAssignment aborts an engagement and releases affiliate capacity
func (s *AssignmentService) CancelAssignment(ctx context.Context, id, reason string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":   models.AssignmentCancelled,
		"end_date": now,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to cancel assignment %s", id)
	}

	if assignment.AffiliateID != "" {
		if err := s.affiliateSvc.CompleteAssignment(ctx, assignment.AffiliateID, assignment.SupplierID); err != nil {
			log.Error().Err(err).Str("assignment_id", id).Msg("failed to release affiliate capacity")
		}
	}

	log.Info().Str("assignment_id", id).Str("reason", reason).Msg("assignment cancelled")
	return s.repo.FindByID(ctx, id)
}

// AddDeliverable attaches a deliverable to the assignment and refreshes
// the rollup counters from the authoritative deliverable set.
func (s *AssignmentService) AddDeliverable(ctx context.Context, id, deliverableID string) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if contains(assignment.Deliverables, deliverableID) {
		return nil
	}
	deliverables := append(assignment.Deliverables, deliverableID)

	updates := map[string]interface{}{
		"deliverables":       deliverables,
		"total_deliverables": len(deliverables),
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return errors.Wrapf(err, "failed to add deliverable to assignment %s", id)
	}

	log.Info().
		Str("assignment_id", id).
		Str("deliverable_id", deliverableID).
		Msg("deliverable added to assignment")
	return nil
}

// RefreshDeliverableProgress recomputes the completion rollup from the
// assignment's deliverables. Safe to call repeatedly; completing the
// same deliverable twice cannot inflate the counters.
func (s *AssignmentService) RefreshDeliverableProgress(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deliverables, err := s.deliverableRepo.FindByIDs(ctx, assignment.Deliverables)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load deliverables for assignment %s", id)
	}

	completed := 0
	for _, d := range deliverables {
		if d.Status == models.DeliverableCompleted {
			completed++
		}
	}

	performance := assignment.Performance
	if len(assignment.Deliverables) > 0 {
		performance.ProgressPercentage = 100 * float64(completed) / float64(len(assignment.Deliverables))
	}

	updates := map[string]interface{}{
		"completed_deliverables": completed,
		"total_deliverables":     len(assignment.Deliverables),
		"performance":            performance,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to refresh progress for assignment %s", id)
	}

	return s.repo.FindByID(ctx, id)
}

// UpdateFinancials records spend and invoices. Spending past the
// allocation counts as an issue.
func (s *AssignmentService) UpdateFinancials(ctx context.Context, id string, update FinancialUpdate) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	financial := assignment.Financial
	performance := assignment.Performance

	if update.BudgetSpent != nil {
		financial.BudgetSpent = *update.BudgetSpent
		if *update.BudgetSpent > financial.BudgetAllocated {
			performance.IssuesCount++
		}
	}
	if update.Invoice != nil {
		invoice := *update.Invoice
		if invoice.ID == "" {
			invoice.ID = uuid.New().String()
		}
		financial.Invoices = append(financial.Invoices, invoice)
	}

	updates := map[string]interface{}{
		"financial":   financial,
		"performance": performance,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return errors.Wrapf(err, "failed to update financials for assignment %s", id)
	}

	log.Info().Str("assignment_id", id).Msg("assignment financials updated")
	return nil
}

// UpdatePerformance applies health changes to an assignment
func (s *AssignmentService) UpdatePerformance(ctx context.Context, id string, update AssignmentPerformanceUpdate) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	performance := assignment.Performance
	if update.OnTrack != nil {
		performance.OnTrack = *update.OnTrack
	}
	if update.IssuesCount != nil {
		performance.IssuesCount = *update.IssuesCount
	}
	if update.RiskLevel != "" {
		performance.RiskLevel = update.RiskLevel
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"performance": performance}); err != nil {
		return errors.Wrapf(err, "failed to update performance for assignment %s", id)
	}
	return nil
}

// AddMeetingNote records a meeting note and refreshes the last contact time
func (s *AssignmentService) AddMeetingNote(ctx context.Context, id, content, author string) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	note := models.Note{
		ID:        uuid.New().String(),
		Content:   content,
		Author:    author,
		CreatedAt: now,
	}
	notes := append(assignment.MeetingNotes, note)

	updates := map[string]interface{}{
		"meeting_notes": notes,
		"last_contact":  now,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return errors.Wrapf(err, "failed to add meeting note to assignment %s", id)
	}
	return nil
}

// ScheduleNextMeeting sets the next meeting time
func (s *AssignmentService) ScheduleNextMeeting(ctx context.Context, id string, at time.Time) error {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"next_meeting": at}); err != nil {
		return errors.Wrapf(err, "failed to schedule meeting for assignment %s", id)
	}
	return nil
}

// GetSupplierActiveAssignments lists a supplier's active engagements
func (s *AssignmentService) GetSupplierActiveAssignments(ctx context.Context, supplierID string) ([]models.Assignment, error) {
	return s.repo.List(ctx, repository.AssignmentFilter{
		SupplierID: supplierID,
		Status:     models.AssignmentActive,
	})
}

// GetAffiliateActiveAssignments lists an affiliate's active engagements
func (s *AssignmentService) GetAffiliateActiveAssignments(ctx context.Context, affiliateID string) ([]models.Assignment, error) {
	return s.repo.List(ctx, repository.AssignmentFilter{
		AffiliateID: affiliateID,
		Status:      models.AssignmentActive,
	})
}

// GetAssignmentStats aggregates counts and health over assignments
func (s *AssignmentService) GetAssignmentStats(ctx context.Context, filter repository.AssignmentFilter) (*AssignmentStats, error) {
	filter.Status = ""
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &AssignmentStats{Total: len(assignments)}
	var progressSum float64
	onTrack := 0
	for _, a := range assignments {
		switch a.Status {
		case models.AssignmentActive:
			stats.Active++
			progressSum += a.Performance.ProgressPercentage
			if a.Performance.OnTrack {
				onTrack++
			}
		case models.AssignmentCompleted:
			stats.Completed++
		case models.AssignmentCancelled:
			stats.Cancelled++
		case models.AssignmentPending:
			stats.Pending++
		}
	}

	if stats.Active > 0 {
		stats.AverageProgress = progressSum / float64(stats.Active)
		stats.OnTrackPercentage = 100 * float64(onTrack) / float64(stats.Active)
	}
	return stats, nil
}

// CheckStalledAssignments lists active assignments with no contact
// within the inactivity window. Runs from the worker.
func (s *AssignmentService) CheckStalledAssignments(ctx context.Context, inactiveFor time.Duration) ([]models.Assignment, error) {
	cutoff := time.Now().Add(-inactiveFor)
	stalled, err := s.repo.FindStalled(ctx, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find stalled assignments")
	}

	if len(stalled) > 0 {
		log.Info().Int("count", len(stalled)).Msg("found stalled assignments")
	}
	return stalled, nil
}
