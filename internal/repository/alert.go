package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"example.com/tbmnc/services/tracker/internal/models"
)

// AlertFilter narrows alert listings
type AlertFilter struct {
	Type        models.AlertType
	Severity    models.AlertSeverity
	Recipient   string
	RelatedType string
	RelatedID   string
	Resolved    *bool
	Read        *bool
	Limit       int
	Offset      int
}

// AlertRepository defines the interface for alert persistence
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Save(ctx context.Context, alert *models.Alert) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountBySeverity(ctx context.Context, resolved bool) (map[models.AlertSeverity]int64, error)
}

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	query := r.db.WithContext(ctx).Model(&models.Alert{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Recipient != "" {
		needle, _ := json.Marshal([]string{filter.Recipient})
		query = query.Where("recipients @> ?", string(needle))
	}
	if filter.RelatedType != "" {
		query = query.Where("related_to ->> 'type' = ?", filter.RelatedType)
	}
	if filter.RelatedID != "" {
		query = query.Where("related_to ->> 'id' = ?", filter.RelatedID)
	}
	if filter.Resolved != nil {
		query = query.Where("resolved = ?", *filter.Resolved)
	}
	if filter.Read != nil {
		query = query.Where("read = ?", *filter.Read)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	var alerts []models.Alert
	err := query.Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

func (r *alertRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *alertRepository) Save(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *alertRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Alert{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes resolved alerts whose expiry has passed.
// Open alerts are never hard-deleted by the sweep.
func (r *alertRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("resolved = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Delete(&models.Alert{})
	return result.RowsAffected, result.Error
}

func (r *alertRepository) CountBySeverity(ctx context.Context, resolved bool) (map[models.AlertSeverity]int64, error) {
	type row struct {
		Severity models.AlertSeverity
		Count    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Alert{}).
		Select("severity, count(*) as count").
		Where("resolved = ?", resolved).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.AlertSeverity]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Severity] = rw.Count
	}
	return counts, nil
}
