package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"example.com/tbmnc/services/tracker/internal/models"
)

// AssignmentFilter narrows assignment listings
type AssignmentFilter struct {
	SupplierID  string
	AffiliateID string
	Status      models.AssignmentStatus
	Limit       int
	Offset      int
}

// AssignmentRepository defines the interface for assignment persistence
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Save(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
	FindStalled(ctx context.Context, cutoff time.Time) ([]models.Assignment, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.AffiliateID != "" {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	var assignments []models.Assignment
	err := query.Order("created_at DESC").Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assignmentRepository) Save(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Assignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindStalled lists active assignments with no contact since the cutoff
func (r *assignmentRepository) FindStalled(ctx context.Context, cutoff time.Time) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AssignmentActive).
		Where("last_contact IS NULL OR last_contact < ?", cutoff).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
