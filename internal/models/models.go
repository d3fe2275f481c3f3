package models

import (
	"time"

	"gorm.io/gorm"
)

// Base model fields shared by all models
type Base struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RiskLevel defines the risk classification shared by suppliers and assignments
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// SetupModels runs database migrations for all tracker models
func SetupModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Supplier{},
		&Affiliate{},
		&Deliverable{},
		&Assignment{},
		&Alert{},
		&User{},
	)
}
