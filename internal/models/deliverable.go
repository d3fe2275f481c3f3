package models

import "time"

// DeliverableStatus defines the lifecycle status of a deliverable
type DeliverableStatus string

const (
	DeliverableNotStarted  DeliverableStatus = "not-started"
	DeliverableInProgress  DeliverableStatus = "in-progress"
	DeliverableBlocked     DeliverableStatus = "blocked"
	DeliverableUnderReview DeliverableStatus = "under-review"
	DeliverableCompleted   DeliverableStatus = "completed"
	DeliverableOverdue     DeliverableStatus = "overdue"
	DeliverableCancelled   DeliverableStatus = "cancelled"
)

// Priority classifies deliverable urgency
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Milestone is a checkpoint within a deliverable
type Milestone struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// Progress tracks completion of a deliverable. Percentage drives the
// derived status; milestone counts must stay consistent with the list.
type Progress struct {
	Percentage          float64     `json:"percentage"`
	LastUpdate          *time.Time  `json:"last_update,omitempty"`
	Milestones          []Milestone `json:"milestones"`
	CompletedMilestones int         `json:"completed_milestones"`
	TotalMilestones     int         `json:"total_milestones"`
}

// Timing holds the schedule fields of a deliverable
type Timing struct {
	StartDate         *time.Time `json:"start_date,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	CompletedDate     *time.Time `json:"completed_date,omitempty"`
	EstimatedDuration int        `json:"estimated_duration"`
	ActualDuration    int        `json:"actual_duration"`
}

// Note is an internal annotation on a deliverable
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Private   bool      `json:"private"`
}

// Comment is a discussion entry on a deliverable
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Mentions  []string  `json:"mentions"`
}

// Deliverable is a trackable unit of work under an assignment.
// Invariant: BlockedBy is a subset of Dependencies, and status is
// "blocked" exactly when BlockedBy is non-empty.
type Deliverable struct {
	Base
	SupplierID   string `json:"supplier_id" gorm:"type:uuid;index"`
	AffiliateID  string `json:"affiliate_id" gorm:"type:uuid;index"`
	AssignmentID string `json:"assignment_id" gorm:"type:uuid;index"`

	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Status   DeliverableStatus `json:"status" gorm:"index"`
	Priority Priority          `json:"priority" gorm:"index"`

	Timing   Timing   `json:"timing" gorm:"type:jsonb;serializer:json"`
	Progress Progress `json:"progress" gorm:"type:jsonb;serializer:json"`

	Dependencies []string `json:"dependencies" gorm:"type:jsonb;serializer:json"`
	BlockedBy    []string `json:"blocked_by" gorm:"type:jsonb;serializer:json"`

	Notes    []Note    `json:"notes" gorm:"type:jsonb;serializer:json"`
	Comments []Comment `json:"comments" gorm:"type:jsonb;serializer:json"`

	CreatedBy      string `json:"created_by"`
	LastModifiedBy string `json:"last_modified_by"`
}
