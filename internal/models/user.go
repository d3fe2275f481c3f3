package models

import "time"

// UserRole determines the permission set granted to a user
type UserRole string

const (
	RoleAdmin            UserRole = "admin"
	RoleProgramManager   UserRole = "program-manager"
	RoleAffiliateManager UserRole = "affiliate-manager"
	RoleSupplierManager  UserRole = "supplier-manager"
	RoleAffiliateUser    UserRole = "affiliate-user"
	RoleSupplierUser     UserRole = "supplier-user"
	RoleViewer           UserRole = "viewer"
)

// UserStatus defines account state
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

// Preferences holds per-user notification settings
type Preferences struct {
	EmailNotifications bool   `json:"email_notifications"`
	AlertDigest        string `json:"alert_digest"`
	Timezone           string `json:"timezone"`
	Language           string `json:"language"`
}

// User is an account in the system. Permissions are derived from
// Role and rewritten whenever the role changes.
type User struct {
	Base
	Email     string     `json:"email" gorm:"uniqueIndex"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      UserRole   `json:"role" gorm:"index"`
	Status    UserStatus `json:"status" gorm:"index"`

	Permissions []string    `json:"permissions" gorm:"type:jsonb;serializer:json"`
	Preferences Preferences `json:"preferences" gorm:"type:jsonb;serializer:json"`

	SupplierID  string `json:"supplier_id" gorm:"type:uuid;index"`
	AffiliateID string `json:"affiliate_id" gorm:"type:uuid;index"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
}
