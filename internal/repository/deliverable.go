package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"example.com/tbmnc/services/tracker/internal/models"
)

// DeliverableFilter narrows deliverable listings
type DeliverableFilter struct {
	SupplierID   string
	AffiliateID  string
	AssignmentID string
	Status       models.DeliverableStatus
	Priority     models.Priority
	Category     string
	Limit        int
	Offset       int
}

// DeliverableRepository defines the interface for deliverable persistence
type DeliverableRepository interface {
	Create(ctx context.Context, deliverable *models.Deliverable) error
	FindByID(ctx context.Context, id string) (*models.Deliverable, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Deliverable, error)
	List(ctx context.Context, filter DeliverableFilter) ([]models.Deliverable, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Save(ctx context.Context, deliverable *models.Deliverable) error
	Delete(ctx context.Context, id string) error
	FindDependents(ctx context.Context, id string) ([]models.Deliverable, error)
	FindOverdue(ctx context.Context, now time.Time) ([]models.Deliverable, error)
	FindApproachingDeadline(ctx context.Context, now time.Time, within time.Duration) ([]models.Deliverable, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deliverableRepository struct {
	db *gorm.DB
}

// NewDeliverableRepository creates a new deliverable repository
func NewDeliverableRepository(db *gorm.DB) DeliverableRepository {
	return &deliverableRepository{db: db}
}

func (r *deliverableRepository) Create(ctx context.Context, deliverable *models.Deliverable) error {
	return r.db.WithContext(ctx).Create(deliverable).Error
}

func (r *deliverableRepository) FindByID(ctx context.Context, id string) (*models.Deliverable, error) {
	var deliverable models.Deliverable
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&deliverable).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &deliverable, nil
}

func (r *deliverableRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Deliverable, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var deliverables []models.Deliverable
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&deliverables).Error
	return deliverables, err
}

func (r *deliverableRepository) List(ctx context.Context, filter DeliverableFilter) ([]models.Deliverable, error) {
	query := r.db.WithContext(ctx).Model(&models.Deliverable{})
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.AffiliateID != "" {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if filter.AssignmentID != "" {
		query = query.Where("assignment_id = ?", filter.AssignmentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	var deliverables []models.Deliverable
	err := query.Order("created_at DESC").Find(&deliverables).Error
	return deliverables, err
}

func (r *deliverableRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Deliverable{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *deliverableRepository) Save(ctx context.Context, deliverable *models.Deliverable) error {
	return r.db.WithContext(ctx).Save(deliverable).Error
}

func (r *deliverableRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Deliverable{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindDependents lists deliverables that declare the given ID as a dependency
func (r *deliverableRepository) FindDependents(ctx context.Context, id string) ([]models.Deliverable, error) {
	needle, err := json.Marshal([]string{id})
	if err != nil {
		return nil, err
	}
	var deliverables []models.Deliverable
	err = r.db.WithContext(ctx).
		Where("dependencies @> ?", string(needle)).
		Find(&deliverables).Error
	return deliverables, err
}

// FindOverdue lists in-progress deliverables whose due date has passed.
// Only in-progress work goes overdue; blocked and not-started deliverables
// keep their status so dependency resolution still applies.
func (r *deliverableRepository) FindOverdue(ctx context.Context, now time.Time) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.db.WithContext(ctx).
		Where("status = ?", models.DeliverableInProgress).
		Where("(timing ->> 'due_date')::timestamptz < ?", now).
		Find(&deliverables).Error
	return deliverables, err
}

// FindApproachingDeadline lists unfinished deliverables due within the window
func (r *deliverableRepository) FindApproachingDeadline(ctx context.Context, now time.Time, within time.Duration) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []models.DeliverableStatus{
			models.DeliverableCompleted, models.DeliverableCancelled,
		}).
		Where("(timing ->> 'due_date')::timestamptz BETWEEN ? AND ?", now, now.Add(within)).
		Find(&deliverables).Error
	return deliverables, err
}

func (r *deliverableRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
