package models

import "time"

// AssignmentStatus defines the lifecycle status of an assignment
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentOnHold    AssignmentStatus = "on-hold"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// Invoice is a billing record attached to an assignment
type Invoice struct {
	ID       string     `json:"id"`
	Amount   float64    `json:"amount"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
	Status   string     `json:"status"`
}

// Financial tracks the budget of an assignment
type Financial struct {
	BudgetAllocated float64   `json:"budget_allocated"`
	BudgetSpent     float64   `json:"budget_spent"`
	BillingType     string    `json:"billing_type"`
	Invoices        []Invoice `json:"invoices"`
}

// AssignmentPerformance is the rolled-up health of an assignment
type AssignmentPerformance struct {
	OnTrack            bool      `json:"on_track"`
	ProgressPercentage float64   `json:"progress_percentage"`
	IssuesCount        int       `json:"issues_count"`
	RiskLevel          RiskLevel `json:"risk_level"`
}

// Assignment pairs an affiliate with a supplier for a scope of work.
// CompletedDeliverables and TotalDeliverables are recomputed from the
// deliverable set, never incremented blindly.
type Assignment struct {
	Base
	SupplierID  string `json:"supplier_id" gorm:"type:uuid;index"`
	AffiliateID string `json:"affiliate_id" gorm:"type:uuid;index"`

	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      AssignmentStatus `json:"status" gorm:"index"`
	Priority    Priority         `json:"priority"`

	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	Deliverables          []string `json:"deliverables" gorm:"type:jsonb;serializer:json"`
	CompletedDeliverables int      `json:"completed_deliverables"`
	TotalDeliverables     int      `json:"total_deliverables"`

	Financial   Financial             `json:"financial" gorm:"type:jsonb;serializer:json"`
	Performance AssignmentPerformance `json:"performance" gorm:"type:jsonb;serializer:json"`

	ApprovedBy string     `json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	LastContact  *time.Time `json:"last_contact,omitempty"`
	NextMeeting  *time.Time `json:"next_meeting,omitempty"`
	MeetingNotes []Note     `json:"meeting_notes" gorm:"type:jsonb;serializer:json"`

	CreatedBy      string `json:"created_by"`
	LastModifiedBy string `json:"last_modified_by"`
}
