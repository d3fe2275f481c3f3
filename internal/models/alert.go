package models

import "time"

// AlertType classifies what an alert is about
type AlertType string

const (
	AlertDeadlineApproaching AlertType = "deadline-approaching"
	AlertOverdue             AlertType = "overdue"
	AlertStatusChange        AlertType = "status-change"
	AlertRiskIdentified      AlertType = "risk-identified"
	AlertMilestoneCompleted  AlertType = "milestone-completed"
	AlertAssignmentStalled   AlertType = "assignment-stalled"
	AlertCapacityWarning     AlertType = "capacity-warning"
	AlertApprovalNeeded      AlertType = "approval-needed"
	AlertDocumentMissing     AlertType = "document-missing"
	AlertPerformanceIssue    AlertType = "performance-issue"
	AlertSystem              AlertType = "system"
)

// AlertSeverity is an ordered ladder used for escalation
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// SeverityLadder orders severities from least to most urgent
var SeverityLadder = []AlertSeverity{
	SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical,
}

// RelatedTo points an alert at the entity it concerns
type RelatedTo struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Alert is a notification about an entity. Read is true only when
// every recipient appears in ReadBy.
type Alert struct {
	Base
	Type     AlertType     `json:"type" gorm:"index"`
	Severity AlertSeverity `json:"severity" gorm:"index"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`

	RelatedTo RelatedTo `json:"related_to" gorm:"type:jsonb;serializer:json"`

	Recipients []string             `json:"recipients" gorm:"type:jsonb;serializer:json"`
	ReadBy     []string             `json:"read_by" gorm:"type:jsonb;serializer:json"`
	ReadAt     map[string]time.Time `json:"read_at" gorm:"type:jsonb;serializer:json"`
	Read       bool                 `json:"read" gorm:"index"`

	Resolved    bool       `json:"resolved" gorm:"index"`
	ResolvedBy  string     `json:"resolved_by"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ActionTaken string     `json:"action_taken"`

	Escalated   bool       `json:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`

	TriggeredBy string     `json:"triggered_by"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
