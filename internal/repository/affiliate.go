package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/tbmnc/services/tracker/internal/models"
)

// AffiliateFilter narrows affiliate listings
type AffiliateFilter struct {
	Status       models.AffiliateStatus
	Type         models.AffiliateType
	Availability models.Availability
	Limit        int
	Offset       int
}

// AffiliateRepository defines the interface for affiliate persistence
type AffiliateRepository interface {
	Create(ctx context.Context, affiliate *models.Affiliate) error
	FindByID(ctx context.Context, id string) (*models.Affiliate, error)
	List(ctx context.Context, filter AffiliateFilter) ([]models.Affiliate, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Save(ctx context.Context, affiliate *models.Affiliate) error
	Delete(ctx context.Context, id string) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type affiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository creates a new affiliate repository
func NewAffiliateRepository(db *gorm.DB) AffiliateRepository {
	return &affiliateRepository{db: db}
}

func (r *affiliateRepository) Create(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Create(affiliate).Error
}

func (r *affiliateRepository) FindByID(ctx context.Context, id string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&affiliate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *affiliateRepository) List(ctx context.Context, filter AffiliateFilter) ([]models.Affiliate, error) {
	query := r.db.WithContext(ctx).Model(&models.Affiliate{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Availability != "" {
		query = query.Where("capacity ->> 'availability' = ?", string(filter.Availability))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	var affiliates []models.Affiliate
	err := query.Order("created_at DESC").Find(&affiliates).Error
	return affiliates, err
}

func (r *affiliateRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Affiliate{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *affiliateRepository) Save(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Save(affiliate).Error
}

func (r *affiliateRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Affiliate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *affiliateRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
