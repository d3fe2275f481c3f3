package services

import (
	"context"
	"math"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrInvalidState is returned when an operation is not allowed in the
// entity's current status.
var ErrInvalidState = errors.New("operation not allowed in current state")

// DeliverableSupplierStats summarizes a supplier's deliverables
type DeliverableSupplierStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	Overdue        int     `json:"overdue"`
	NotStarted     int     `json:"not_started"`
	CompletionRate float64 `json:"completion_rate"`
}

// DeliverableAffiliateStats summarizes an affiliate's deliverables
type DeliverableAffiliateStats struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Overdue    int     `json:"overdue"`
	OnTimeRate float64 `json:"on_time_rate"`
}

// DeliverableService handles deliverable lifecycle and dependencies
type DeliverableService struct {
	repo repository.DeliverableRepository
}

// NewDeliverableService creates a new deliverable service
func NewDeliverableService(repo repository.DeliverableRepository) *DeliverableService {
	return &DeliverableService{repo: repo}
}

// statusForProgress derives deliverable status from progress: 0 is
// not started, 100 is completed, anything between is in progress.
func statusForProgress(percentage float64) models.DeliverableStatus {
	switch {
	case percentage <= 0:
		return models.DeliverableNotStarted
	case percentage >= 100:
		return models.DeliverableCompleted
	default:
		return models.DeliverableInProgress
	}
}

// CreateDeliverable registers a new deliverable. Dependencies that are
// not yet completed become the initial blockedBy set.
func (s *DeliverableService) CreateDeliverable(ctx context.Context, deliverable *models.Deliverable, userID string) (*models.Deliverable, error) {
	deliverable.ID = uuid.New().String()
	deliverable.Status = models.DeliverableNotStarted
	deliverable.Progress.Percentage = 0
	deliverable.Progress.CompletedMilestones = 0
	deliverable.Progress.TotalMilestones = len(deliverable.Progress.Milestones)
	if deliverable.Dependencies == nil {
		deliverable.Dependencies = []string{}
	}
	deliverable.CreatedBy = userID
	deliverable.LastModifiedBy = userID

	blockedBy := []string{}
	if len(deliverable.Dependencies) > 0 {
		deps, err := s.repo.FindByIDs(ctx, deliverable.Dependencies)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve dependencies")
		}
		for _, dep := range deps {
			if dep.Status != models.DeliverableCompleted {
				blockedBy = append(blockedBy, dep.ID)
			}
		}
	}
	deliverable.BlockedBy = blockedBy
	if len(blockedBy) > 0 {
		deliverable.Status = models.DeliverableBlocked
	}

	if err := s.repo.Create(ctx, deliverable); err != nil {
		return nil, errors.Wrap(err, "failed to create deliverable")
	}

	log.Info().
		Str("deliverable_id", deliverable.ID).
		Str("title", deliverable.Title).
		Int("blocked_by", len(blockedBy)).
		Msg("deliverable created")
	return deliverable, nil
}

// GetDeliverable fetches a deliverable by ID
func (s *DeliverableService) GetDeliverable(ctx context.Context, id string) (*models.Deliverable, error) {
	return s.repo.FindByID(ctx, id)
}

// ListDeliverables lists deliverables matching the filter
func (s *DeliverableService) ListDeliverables(ctx context.Context, filter repository.DeliverableFilter) ([]models.Deliverable, error) {
	return s.repo.List(ctx, filter)
}

// UpdateDeliverable applies changes to a deliverable
func (s *DeliverableService) UpdateDeliverable(ctx context.Context, id string, updates map[string]interface{}, userID string) (*models.Deliverable, error) {
	updates["last_modified_by"] = userID
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update deliverable %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteDeliverable removes a deliverable
func (s *DeliverableService) DeleteDeliverable(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete deliverable %s", id)
	}
	log.Info().Str("deliverable_id", id).Msg("deliverable deleted")
	return nil
}

// UpdateStatus sets a deliverable's status. Completion stamps the
// completed date, forces progress to 100, computes the actual duration
// in whole days and unblocks dependents.
func (s *DeliverableService) UpdateStatus(ctx context.Context, id string, status models.DeliverableStatus, userID string) (*models.Deliverable, error) {
	deliverable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":           status,
		"last_modified_by": userID,
	}

	if status == models.DeliverableCompleted {
		now := time.Now()
		timing := deliverable.Timing
		timing.CompletedDate = &now
		if timing.StartDate != nil {
			timing.ActualDuration = int(math.Ceil(now.Sub(*timing.StartDate).Hours() / 24))
		}
		progress := deliverable.Progress
		progress.Percentage = 100
		progress.LastUpdate = &now
		updates["timing"] = timing
		updates["progress"] = progress
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update status for deliverable %s", id)
	}

	if status == models.DeliverableCompleted {
		if err := s.resolveDependents(ctx, id); err != nil {
			log.Error().Err(err).Str("deliverable_id", id).Msg("failed to unblock dependents")
		}
	}

	log.Info().Str("deliverable_id", id).Str("status", string(status)).Msg("deliverable status updated")
	return s.repo.FindByID(ctx, id)
}

// UpdateProgress sets the progress percentage and derives the status
// from it. Progress cannot change on a cancelled deliverable.
func (s *DeliverableService) UpdateProgress(ctx context.Context, id string, percentage float64, userID string) (*models.Deliverable, error) {
	deliverable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if deliverable.Status == models.DeliverableCancelled {
		return nil, errors.Wrapf(ErrInvalidState, "deliverable %s is cancelled", id)
	}

	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	now := time.Now()
	progress := deliverable.Progress
	progress.Percentage = percentage
	progress.LastUpdate = &now

	status := statusForProgress(percentage)
	updates := map[string]interface{}{
		"progress":         progress,
		"status":           status,
		"last_modified_by": userID,
	}

	if status == models.DeliverableCompleted {
		timing := deliverable.Timing
		timing.CompletedDate = &now
		if timing.StartDate != nil {
			timing.ActualDuration = int(math.Ceil(now.Sub(*timing.StartDate).Hours() / 24))
		}
		updates["timing"] = timing
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update progress for deliverable %s", id)
	}

	if status == models.DeliverableCompleted {
		if err := s.resolveDependents(ctx, id); err != nil {
			log.Error().Err(err).Str("deliverable_id", id).Msg("failed to unblock dependents")
		}
	}

	log.Info().Str("deliverable_id", id).Float64("percentage", percentage).Msg("deliverable progress updated")
	return s.repo.FindByID(ctx, id)
}

// CompleteMilestone marks one milestone done and re-derives progress
// from the completed fraction.
func (s *DeliverableService) CompleteMilestone(ctx context.Context, id, milestoneID string) (*models.Deliverable, error) {
	deliverable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(deliverable.Progress.Milestones) == 0 {
		return nil, errors.Errorf("deliverable %s has no milestones", id)
	}

	now := time.Now()
	found := false
	milestones := make([]models.Milestone, len(deliverable.Progress.Milestones))
	for i, m := range deliverable.Progress.Milestones {
		if m.ID == milestoneID {
			m.Completed = true
			m.CompletedDate = &now
			found = true
		}
		milestones[i] = m
	}
	if !found {
		return nil, errors.Wrapf(repository.ErrNotFound, "milestone %s", milestoneID)
	}

	completed := 0
	for _, m := range milestones {
		if m.Completed {
			completed++
		}
	}

	progress := deliverable.Progress
	progress.Milestones = milestones
	progress.CompletedMilestones = completed
	progress.TotalMilestones = len(milestones)
	progress.Percentage = 100 * float64(completed) / float64(len(milestones))
	progress.LastUpdate = &now

	updates := map[string]interface{}{
		"progress": progress,
		"status":   statusForProgress(progress.Percentage),
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to complete milestone for deliverable %s", id)
	}

	if progress.Percentage >= 100 {
		if err := s.resolveDependents(ctx, id); err != nil {
			log.Error().Err(err).Str("deliverable_id", id).Msg("failed to unblock dependents")
		}
	}

	log.Info().
		Str("deliverable_id", id).
		Str("milestone_id", milestoneID).
		Int("completed", completed).
		Msg("milestone completed")
	return s.repo.FindByID(ctx, id)
}

// AddNote attaches an internal note to a deliverable
func (s *DeliverableService) AddNote(ctx context.Context, id, content, author string, private bool) error {
	deliverable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	note := models.Note{
		ID:        uuid.New().String(),
		Content:   content,
		Author:    author,
		CreatedAt: time.Now(),
		Private:   private,
	}
	notes := append(deliverable.Notes, note)

	if err := s.repo.Update(ctx, id, map[string]interface{}{"notes": notes}); err != nil {
		return errors.Wrapf(err, "failed to add note to deliverable %s", id)
	}
	return nil
}

// AddComment attaches a discussion comment to a deliverable
func (s *DeliverableService) AddComment(ctx context.Context, id, content, author string, mentions []string) error {
	deliverable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	comment := models.Comment{
		ID:        uuid.New().String(),
		Content:   content,
		Author:    author,
		CreatedAt: time.Now(),
		Mentions:  mentions,
	}
	comments := append(deliverable.Comments, comment)

	if err := s.repo.Update(ctx, id, map[string]interface{}{"comments": comments}); err != nil {
		return errors.Wrapf(err, "failed to add comment to deliverable %s", id)
	}
	return nil
}

// CheckOverdueDeliverables marks in-progress deliverables past their
// due date as overdue. Runs from the worker; returns the flipped IDs.
func (s *DeliverableService) CheckOverdueDeliverables(ctx context.Context) ([]string, error) {
	overdue, err := s.repo.FindOverdue(ctx, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find overdue deliverables")
	}

	var flipped []string
	for _, d := range overdue {
		// blocked and not-started work keeps its status
		if d.Status != models.DeliverableInProgress {
			continue
		}
		if err := s.repo.Update(ctx, d.ID, map[string]interface{}{
			"status":           models.DeliverableOverdue,
			"last_modified_by": "system",
		}); err != nil {
			log.Error().Err(err).Str("deliverable_id", d.ID).Msg("failed to mark deliverable overdue")
			continue
		}
		flipped = append(flipped, d.ID)
	}

	if len(flipped) > 0 {
		log.Info().Int("count", len(flipped)).Msg("marked deliverables overdue")
	}
	return flipped, nil
}

// GetApproachingDeadlines lists unfinished deliverables due within the window
func (s *DeliverableService) GetApproachingDeadlines(ctx context.Context, within time.Duration) ([]models.Deliverable, error) {
	return s.repo.FindApproachingDeadline(ctx, time.Now(), within)
}

// GetSupplierStats aggregates deliverable counts for one supplier
func (s *DeliverableService) GetSupplierStats(ctx context.Context, supplierID string) (*DeliverableSupplierStats, error) {
	deliverables, err := s.repo.List(ctx, repository.DeliverableFilter{SupplierID: supplierID})
	if err != nil {
		return nil, err
	}

	stats := &DeliverableSupplierStats{Total: len(deliverables)}
	for _, d := range deliverables {
		switch d.Status {
		case models.DeliverableCompleted:
			stats.Completed++
		case models.DeliverableInProgress:
			stats.InProgress++
		case models.DeliverableOverdue:
			stats.Overdue++
		case models.DeliverableNotStarted:
			stats.NotStarted++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = 100 * float64(stats.Completed) / float64(stats.Total)
	}
	return stats, nil
}

// DeliverableStats is the status rollup over all deliverables
type DeliverableStats struct {
	Total    int64                              `json:"total"`
	Overdue  int64                              `json:"overdue"`
	ByStatus map[models.DeliverableStatus]int64 `json:"by_status"`
}

// GetDeliverableStats aggregates deliverable counts by status
func (s *DeliverableService) GetDeliverableStats(ctx context.Context) (*DeliverableStats, error) {
	deliverables, err := s.repo.List(ctx, repository.DeliverableFilter{})
	if err != nil {
		return nil, err
	}

	stats := &DeliverableStats{
		Total:    int64(len(deliverables)),
		ByStatus: make(map[models.DeliverableStatus]int64),
	}
	for _, d := range deliverables {
		stats.ByStatus[d.Status]++
		if d.Status == models.DeliverableOverdue {
			stats.Overdue++
		}
	}
	return stats, nil
}

// GetAffiliateStats aggregates deliverable counts for one affiliate
func (s *DeliverableService) GetAffiliateStats(ctx context.Context, affiliateID string) (*DeliverableAffiliateStats, error) {
	deliverables, err := s.repo.List(ctx, repository.DeliverableFilter{AffiliateID: affiliateID})
	if err != nil {
		return nil, err
	}

	stats := &DeliverableAffiliateStats{Total: len(deliverables)}
	onTime := 0
	for _, d := range deliverables {
		switch d.Status {
		case models.DeliverableCompleted:
			stats.Completed++
			if d.Timing.DueDate != nil && d.Timing.CompletedDate != nil &&
				!d.Timing.CompletedDate.After(*d.Timing.DueDate) {
				onTime++
			}
		case models.DeliverableInProgress:
			stats.InProgress++
		case models.DeliverableOverdue:
			stats.Overdue++
		}
	}
	if stats.Completed > 0 {
		stats.OnTimeRate = 100 * float64(onTime) / float64(stats.Completed)
	}
	return stats, nil
}

// resolveDependents removes a completed deliverable from every
// dependent's blockedBy set. A dependent whose set empties while
// blocked moves back to not-started.
func (s *DeliverableService) resolveDependents(ctx context.Context, completedID string) error {
	dependents, err := s.repo.FindDependents(ctx, completedID)
	if err != nil {
		return err
	}

	for _, dep := range dependents {
		blockedBy := make([]string, 0, len(dep.BlockedBy))
		for _, id := range dep.BlockedBy {
			if id != completedID {
				blockedBy = append(blockedBy, id)
			}
		}
		if len(blockedBy) == len(dep.BlockedBy) {
			continue
		}

		updates := map[string]interface{}{"blocked_by": blockedBy}
		if len(blockedBy) == 0 && dep.Status == models.DeliverableBlocked {
			updates["status"] = models.DeliverableNotStarted
		}
		if err := s.repo.Update(ctx, dep.ID, updates); err != nil {
			log.Error().Err(err).Str("deliverable_id", dep.ID).Msg("failed to update dependent")
			continue
		}

		if len(blockedBy) == 0 {
			log.Info().
				Str("deliverable_id", dep.ID).
				Str("unblocked_by", completedID).
				Msg("deliverable unblocked")
		}
	}
	return nil
}
