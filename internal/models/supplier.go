package models

import "time"

// SupplierStatus defines the qualification status of a supplier
type SupplierStatus string

const (
	SupplierPending   SupplierStatus = "pending"
	SupplierActive    SupplierStatus = "active"
	SupplierQualified SupplierStatus = "qualified"
	SupplierRejected  SupplierStatus = "rejected"
	SupplierOnHold    SupplierStatus = "on-hold"
)

// CompanySize classifies a supplier by headcount and revenue
type CompanySize string

const (
	CompanyMicro      CompanySize = "micro"
	CompanySmall      CompanySize = "small"
	CompanyMedium     CompanySize = "medium"
	CompanyLarge      CompanySize = "large"
	CompanyEnterprise CompanySize = "enterprise"
)

// TierLevel is the automotive tier classification of a supplier
type TierLevel string

const (
	Tier1    TierLevel = "tier-1"
	Tier2    TierLevel = "tier-2"
	Tier3    TierLevel = "tier-3"
	Tier4    TierLevel = "tier-4"
	TierNone TierLevel = "none"
)

// BatteryExperience captures a supplier's battery industry background
type BatteryExperience struct {
	HasExperience   bool     `json:"has_experience"`
	YearsInIndustry int      `json:"years_in_industry"`
	BatteryTypes    []string `json:"battery_types"`
}

// AutomotiveExperience captures a supplier's automotive background
type AutomotiveExperience struct {
	HasExperience   bool      `json:"has_experience"`
	YearsInIndustry int       `json:"years_in_industry"`
	TierLevel       TierLevel `json:"tier_level"`
	CurrentOEMs     []string  `json:"current_oems"`
}

// TechnicalCapabilities captures production and R&D capabilities
type TechnicalCapabilities struct {
	AutomationLevel       string   `json:"automation_level"`
	QualityControlSystems []string `json:"quality_control_systems"`
	HasRD                 bool     `json:"has_rd"`
	Patents               int      `json:"patents"`
}

// Certifications tracks which quality certifications a supplier holds
type Certifications struct {
	ISO9001   bool `json:"iso9001"`
	IATF16949 bool `json:"iatf16949"`
	ISO14001  bool `json:"iso14001"`
	ISO45001  bool `json:"iso45001"`
}

// Sustainability captures environmental posture
type Sustainability struct {
	EnvironmentalCompliance bool   `json:"environmental_compliance"`
	CarbonFootprint         string `json:"carbon_footprint"`
}

// Supplier is an organization progressing through the qualification pipeline.
// Nested profile documents are stored as jsonb; assignedAffiliates is kept
// consistent with each Affiliate's current assignment list by the services.
type Supplier struct {
	Base
	CompanyName     string      `json:"company_name" gorm:"index"`
	LegalName       string      `json:"legal_name"`
	CompanySize     CompanySize `json:"company_size"`
	YearEstablished int         `json:"year_established"`
	EmployeeCount   int         `json:"employee_count"`
	AnnualRevenue   string      `json:"annual_revenue"`

	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email"`
	ContactPhone  string `json:"contact_phone"`

	BatteryExperience     BatteryExperience     `json:"battery_experience" gorm:"type:jsonb;serializer:json"`
	AutomotiveExperience  AutomotiveExperience  `json:"automotive_experience" gorm:"type:jsonb;serializer:json"`
	TechnicalCapabilities TechnicalCapabilities `json:"technical_capabilities" gorm:"type:jsonb;serializer:json"`
	Certifications        Certifications        `json:"certifications" gorm:"type:jsonb;serializer:json"`
	Sustainability        Sustainability        `json:"sustainability" gorm:"type:jsonb;serializer:json"`

	Status             SupplierStatus `json:"status" gorm:"index"`
	CurrentStage       int            `json:"current_stage" gorm:"index"`
	ProgressPercentage float64        `json:"progress_percentage"`

	DaysInCurrentStage int `json:"days_in_current_stage"`
	TotalDaysInProcess int `json:"total_days_in_process"`

	RiskLevel   RiskLevel `json:"risk_level" gorm:"index"`
	RiskFactors []string  `json:"risk_factors" gorm:"type:jsonb;serializer:json"`

	AssignedAffiliates []string `json:"assigned_affiliates" gorm:"type:jsonb;serializer:json"`

	OnboardingCompleted   bool       `json:"onboarding_completed"`
	OnboardingStep        int        `json:"onboarding_step"`
	OnboardingStartedAt   *time.Time `json:"onboarding_started_at"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at"`

	Tags       []string `json:"tags" gorm:"type:jsonb;serializer:json"`
	Categories []string `json:"categories" gorm:"type:jsonb;serializer:json"`

	CreatedBy      string `json:"created_by"`
	LastModifiedBy string `json:"last_modified_by"`
}
