package models

import "time"

// AffiliateStatus defines the lifecycle status of an affiliate
type AffiliateStatus string

const (
	AffiliatePendingApproval AffiliateStatus = "pending-approval"
	AffiliateActive          AffiliateStatus = "active"
	AffiliateInactive        AffiliateStatus = "inactive"
	AffiliateSuspended       AffiliateStatus = "suspended"
)

// AffiliateType distinguishes companies from individual consultants
type AffiliateType string

const (
	AffiliateCompany    AffiliateType = "company"
	AffiliateIndividual AffiliateType = "individual"
)

// Availability is the derived capacity tier of an affiliate. It is never
// set directly; the affiliate service recomputes it from the load ratio
// in the same write as currentLoad.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityLimited     Availability = "limited"
	AvailabilityUnavailable Availability = "unavailable"
)

// ServiceOfferings lists what an affiliate can do for suppliers
type ServiceOfferings struct {
	Categories       []string `json:"categories"`
	SpecificServices []string `json:"specific_services"`
	DeliveryMethods  []string `json:"delivery_methods"`
}

// IndustryExperience tracks years of experience per industry
type IndustryExperience struct {
	Automotive    int `json:"automotive"`
	Battery       int `json:"battery"`
	Manufacturing int `json:"manufacturing"`
}

// Expertise captures an affiliate's credentials and track record
type Expertise struct {
	Certifications     []string           `json:"certifications"`
	YearsInBusiness    int                `json:"years_in_business"`
	IndustryExperience IndustryExperience `json:"industry_experience"`
	ToyotaExperience   bool               `json:"toyota_experience"`
	ToyotaProjects     int                `json:"toyota_projects"`
}

// Capacity holds the load tracking fields. Availability is derived from
// CurrentLoad/MaxCapacity and must be written together with CurrentLoad.
type Capacity struct {
	CurrentLoad           int          `json:"current_load"`
	MaxCapacity           int          `json:"max_capacity"`
	Availability          Availability `json:"availability"`
	GeographicPreferences []string     `json:"geographic_preferences"`
}

// AssignmentLists tracks the suppliers an affiliate is or was engaged with.
// TotalActive and TotalCompleted must equal the list lengths after every
// mutation.
type AssignmentLists struct {
	Current        []string `json:"current"`
	Past           []string `json:"past"`
	TotalActive    int      `json:"total_active"`
	TotalCompleted int      `json:"total_completed"`
}

// Performance holds the affiliate's running performance metrics.
// AverageRating is a running weighted mean over TotalRatings.
type Performance struct {
	AverageRating           float64 `json:"average_rating"`
	TotalRatings            int     `json:"total_ratings"`
	OnTimeDeliveryRate      float64 `json:"on_time_delivery_rate"`
	ClientSatisfactionScore float64 `json:"client_satisfaction_score"`
}

// ApprovalStatus records the registration review outcome
type ApprovalStatus struct {
	Approved        bool       `json:"approved"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// Affiliate is a service provider assigned to help suppliers qualify
type Affiliate struct {
	Base
	Name string        `json:"name" gorm:"index"`
	Type AffiliateType `json:"type"`

	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`

	ServiceOfferings ServiceOfferings `json:"service_offerings" gorm:"type:jsonb;serializer:json"`
	Expertise        Expertise        `json:"expertise" gorm:"type:jsonb;serializer:json"`
	Capacity         Capacity         `json:"capacity" gorm:"type:jsonb;serializer:json"`
	Assignments      AssignmentLists  `json:"assignments" gorm:"type:jsonb;serializer:json"`
	Performance      Performance      `json:"performance" gorm:"type:jsonb;serializer:json"`

	Status         AffiliateStatus `json:"status" gorm:"index"`
	ApprovalStatus ApprovalStatus  `json:"approval_status" gorm:"type:jsonb;serializer:json"`

	RegistrationDate      *time.Time `json:"registration_date"`
	RegistrationCompleted bool       `json:"registration_completed"`
	RegistrationStep      int        `json:"registration_step"`

	LastActivity *time.Time `json:"last_activity"`
}
