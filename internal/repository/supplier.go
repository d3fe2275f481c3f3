package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"example.com/tbmnc/services/tracker/internal/models"
)

// SupplierFilter narrows supplier listings
type SupplierFilter struct {
	Status    models.SupplierStatus
	Stage     string
	RiskLevel models.RiskLevel
	Category  string
	Limit     int
	Offset    int
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	FindByID(ctx context.Context, id string) (*models.Supplier, error)
	List(ctx context.Context, filter SupplierFilter) ([]models.Supplier, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Save(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id string) error
	FindByAffiliate(ctx context.Context, affiliateID string) ([]models.Supplier, error)
	CountByStatus(ctx context.Context) (map[models.SupplierStatus]int64, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, filter SupplierFilter) ([]models.Supplier, error) {
	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Stage != "" {
		query = query.Where("current_stage = ?", filter.Stage)
	}
	if filter.RiskLevel != "" {
		query = query.Where("risk_level = ?", filter.RiskLevel)
	}
	if filter.Category != "" {
		needle, _ := json.Marshal([]string{filter.Category})
		query = query.Where("categories @> ?", string(needle))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	var suppliers []models.Supplier
	err := query.Order("created_at DESC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Supplier{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *supplierRepository) Save(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Supplier{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByAffiliate lists suppliers whose assigned affiliate set contains the given ID
func (r *supplierRepository) FindByAffiliate(ctx context.Context, affiliateID string) ([]models.Supplier, error) {
	needle, err := json.Marshal([]string{affiliateID})
	if err != nil {
		return nil, err
	}
	var suppliers []models.Supplier
	err = r.db.WithContext(ctx).
		Where("assigned_affiliates @> ?", string(needle)).
		Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepository) CountByStatus(ctx context.Context) (map[models.SupplierStatus]int64, error) {
	type row struct {
		Status models.SupplierStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Supplier{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.SupplierStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *supplierRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
