package services

import (
	"context"
	"fmt"
	"time"

	"example.com/tbmnc/services/tracker/internal/messaging"
	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AlertStats aggregates unresolved alert counts
type AlertStats struct {
	Total      int64                          `json:"total"`
	Unresolved int64                          `json:"unresolved"`
	BySeverity map[models.AlertSeverity]int64 `json:"by_severity"`
	ByType     map[models.AlertType]int64     `json:"by_type"`
}

// AlertService manages notifications about tracked entities
type AlertService struct {
	repo repository.AlertRepository
	bus  messaging.ServiceBusClient
}

// NewAlertService creates a new alert service. bus may be nil when
// outbound notifications are not configured.
func NewAlertService(repo repository.AlertRepository, bus messaging.ServiceBusClient) *AlertService {
	return &AlertService{repo: repo, bus: bus}
}

// EscalateSeverity returns the next step up the severity ladder,
// saturating at critical.
func EscalateSeverity(current models.AlertSeverity) models.AlertSeverity {
	for i, s := range models.SeverityLadder {
		if s == current && i < len(models.SeverityLadder)-1 {
			return models.SeverityLadder[i+1]
		}
	}
	return current
}

// allRead reports whether every recipient appears in readBy
func allRead(recipients, readBy []string) bool {
	seen := make(map[string]bool, len(readBy))
	for _, r := range readBy {
		seen[r] = true
	}
	for _, r := range recipients {
		if !seen[r] {
			return false
		}
	}
	return true
}

// CreateAlert stores an alert and publishes it to the notification queue
func (s *AlertService) CreateAlert(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	alert.ID = uuid.New().String()
	if alert.Severity == "" {
		alert.Severity = models.SeverityInfo
	}
	if alert.Recipients == nil {
		alert.Recipients = []string{}
	}
	alert.ReadBy = []string{}
	alert.ReadAt = map[string]time.Time{}
	alert.Read = len(alert.Recipients) == 0

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, errors.Wrap(err, "failed to create alert")
	}

	log.Info().
		Str("alert_id", alert.ID).
		Str("type", string(alert.Type)).
		Str("severity", string(alert.Severity)).
		Msg("alert created")

	s.publish(ctx, alert)
	return alert, nil
}

// GetAlert fetches an alert by ID
func (s *AlertService) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.repo.FindByID(ctx, id)
}

// ListAlerts lists alerts matching the filter
func (s *AlertService) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]models.Alert, error) {
	return s.repo.List(ctx, filter)
}

// DeleteAlert removes an alert
func (s *AlertService) DeleteAlert(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete alert %s", id)
	}
	return nil
}

// MarkAsRead records that a user saw the alert. The alert reads as
// fully read only when every recipient has seen it.
func (s *AlertService) MarkAsRead(ctx context.Context, id, userID string) (*models.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	readBy := alert.ReadBy
	if !contains(readBy, userID) {
		readBy = append(readBy, userID)
	}
	readAt := alert.ReadAt
	if readAt == nil {
		readAt = map[string]time.Time{}
	}
	readAt[userID] = time.Now()

	updates := map[string]interface{}{
		"read_by": readBy,
		"read_at": readAt,
		"read":    allRead(alert.Recipients, readBy),
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to mark alert %s as read", id)
	}

	return s.repo.FindByID(ctx, id)
}

// ResolveAlert closes an alert
func (s *AlertService) ResolveAlert(ctx context.Context, id, userID string) (*models.Alert, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"resolved":    true,
		"resolved_by": userID,
		"resolved_at": now,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to resolve alert %s", id)
	}

	log.Info().Str("alert_id", id).Str("resolved_by", userID).Msg("alert resolved")
	return s.repo.FindByID(ctx, id)
}

// TakeAction records what was done about an alert
func (s *AlertService) TakeAction(ctx context.Context, id, action, userID string) (*models.Alert, error) {
	updates := map[string]interface{}{
		"action_taken": fmt.Sprintf("%s (by %s)", action, userID),
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to record action on alert %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// EscalateAlert bumps the severity one step, adds the new recipient
// and re-evaluates the read flag against the widened audience.
func (s *AlertService) EscalateAlert(ctx context.Context, id, escalateTo string) (*models.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recipients := alert.Recipients
	if escalateTo != "" && !contains(recipients, escalateTo) {
		recipients = append(recipients, escalateTo)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"escalated":    true,
		"escalated_at": now,
		"recipients":   recipients,
		"severity":     EscalateSeverity(alert.Severity),
		"read":         allRead(recipients, alert.ReadBy),
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to escalate alert %s", id)
	}

	log.Info().
		Str("alert_id", id).
		Str("escalated_to", escalateTo).
		Msg("alert escalated")
	return s.repo.FindByID(ctx, id)
}

// GetUnreadAlerts lists unresolved alerts the user has not seen
func (s *AlertService) GetUnreadAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	resolved := false
	alerts, err := s.repo.List(ctx, repository.AlertFilter{
		Recipient: userID,
		Resolved:  &resolved,
	})
	if err != nil {
		return nil, err
	}

	var unread []models.Alert
	for _, a := range alerts {
		if !contains(a.ReadBy, userID) {
			unread = append(unread, a)
		}
	}
	return unread, nil
}

// GetCriticalAlerts lists unresolved critical alerts
func (s *AlertService) GetCriticalAlerts(ctx context.Context) ([]models.Alert, error) {
	resolved := false
	return s.repo.List(ctx, repository.AlertFilter{
		Severity: models.SeverityCritical,
		Resolved: &resolved,
	})
}

// GetEntityAlerts lists alerts about one entity
func (s *AlertService) GetEntityAlerts(ctx context.Context, entityType, entityID string) ([]models.Alert, error) {
	return s.repo.List(ctx, repository.AlertFilter{
		RelatedType: entityType,
		RelatedID:   entityID,
	})
}

// CleanupExpiredAlerts deletes resolved alerts past their expiry. Runs from the worker.
func (s *AlertService) CleanupExpiredAlerts(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up expired alerts")
	}
	if removed > 0 {
		log.Info().Int64("count", removed).Msg("removed expired alerts")
	}
	return removed, nil
}

// GetAlertStats aggregates unresolved alert counts by severity and type
func (s *AlertService) GetAlertStats(ctx context.Context) (*AlertStats, error) {
	alerts, err := s.repo.List(ctx, repository.AlertFilter{})
	if err != nil {
		return nil, err
	}

	bySeverity, err := s.repo.CountBySeverity(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count alerts by severity")
	}

	stats := &AlertStats{
		Total:      int64(len(alerts)),
		BySeverity: bySeverity,
		ByType:     make(map[models.AlertType]int64),
	}
	for _, a := range alerts {
		if a.Resolved {
			continue
		}
		stats.Unresolved++
		stats.ByType[a.Type]++
	}
	return stats, nil
}

// CreateOverdueAlert flags an overdue deliverable
func (s *AlertService) CreateOverdueAlert(ctx context.Context, deliverableID, deliverableName string, recipients []string) (*models.Alert, error) {
	return s.CreateAlert(ctx, &models.Alert{
		Type:     models.AlertOverdue,
		Severity: models.SeverityHigh,
		Title:    "Deliverable Overdue",
		Message:  fmt.Sprintf("Deliverable %q is overdue and requires immediate attention.", deliverableName),
		RelatedTo: models.RelatedTo{
			Type: "deliverable",
			ID:   deliverableID,
			Name: deliverableName,
		},
		Recipients:  recipients,
		TriggeredBy: "system",
	})
}

// CreateApproachingDeadlineAlert warns about an upcoming due date
func (s *AlertService) CreateApproachingDeadlineAlert(ctx context.Context, deliverableID, deliverableName string, daysRemaining int, recipients []string) (*models.Alert, error) {
	severity := models.SeverityMedium
	if daysRemaining <= 1 {
		severity = models.SeverityHigh
	}
	return s.CreateAlert(ctx, &models.Alert{
		Type:     models.AlertDeadlineApproaching,
		Severity: severity,
		Title:    "Deadline Approaching",
		Message:  fmt.Sprintf("Deliverable %q is due in %d day(s).", deliverableName, daysRemaining),
		RelatedTo: models.RelatedTo{
			Type: "deliverable",
			ID:   deliverableID,
			Name: deliverableName,
		},
		Recipients:  recipients,
		TriggeredBy: "system",
	})
}

// CreateAtRiskAlert flags a supplier whose qualification is at risk
func (s *AlertService) CreateAtRiskAlert(ctx context.Context, supplierID, supplierName, reason string, recipients []string) (*models.Alert, error) {
	return s.CreateAlert(ctx, &models.Alert{
		Type:     models.AlertRiskIdentified,
		Severity: models.SeverityHigh,
		Title:    "Supplier At Risk",
		Message:  fmt.Sprintf("Supplier %q is at risk: %s", supplierName, reason),
		RelatedTo: models.RelatedTo{
			Type: "supplier",
			ID:   supplierID,
			Name: supplierName,
		},
		Recipients:  recipients,
		TriggeredBy: "system",
	})
}

// CreateStalledAlert flags an assignment with no recent activity
func (s *AlertService) CreateStalledAlert(ctx context.Context, assignmentID, title string, daysInactive int, recipients []string) (*models.Alert, error) {
	return s.CreateAlert(ctx, &models.Alert{
		Type:     models.AlertAssignmentStalled,
		Severity: models.SeverityMedium,
		Title:    "Assignment Stalled",
		Message:  fmt.Sprintf("Assignment %q has had no activity for %d days.", title, daysInactive),
		RelatedTo: models.RelatedTo{
			Type: "assignment",
			ID:   assignmentID,
			Name: title,
		},
		Recipients:  recipients,
		TriggeredBy: "system",
	})
}

// CreateCapacityWarningAlert flags an affiliate running at capacity
func (s *AlertService) CreateCapacityWarningAlert(ctx context.Context, affiliateID, affiliateName string, currentLoad, maxCapacity int, recipients []string) (*models.Alert, error) {
	return s.CreateAlert(ctx, &models.Alert{
		Type:     models.AlertCapacityWarning,
		Severity: models.SeverityMedium,
		Title:    "Affiliate Over Capacity",
		Message:  fmt.Sprintf("Affiliate %q is at %d/%d capacity.", affiliateName, currentLoad, maxCapacity),
		RelatedTo: models.RelatedTo{
			Type: "affiliate",
			ID:   affiliateID,
			Name: affiliateName,
		},
		Recipients:  recipients,
		TriggeredBy: "system",
	})
}

// publish pushes the alert onto the notification queue, best effort
func (s *AlertService) publish(ctx context.Context, alert *models.Alert) {
	if s.bus == nil {
		return
	}
	if err := s.bus.SendMessage(ctx, alert); err != nil {
		log.Warn().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert notification")
	}
}
