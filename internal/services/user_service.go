package services

import (
	"context"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// UserStats aggregates account counts
type UserStats struct {
	Total    int64                       `json:"total"`
	ByRole   map[models.UserRole]int64   `json:"by_role"`
	ByStatus map[models.UserStatus]int64 `json:"by_status"`
}

// UserService manages accounts and role-derived permissions
type UserService struct {
	repo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// DefaultPermissions returns the permission set granted by a role
func DefaultPermissions(role models.UserRole) []string {
	switch role {
	case models.RoleAdmin:
		return []string{
			"users:read", "users:write",
			"suppliers:read", "suppliers:write",
			"affiliates:read", "affiliates:write",
			"assignments:read", "assignments:write",
			"deliverables:read", "deliverables:write",
			"alerts:read", "alerts:write",
			"analytics:read",
			"settings:write",
		}
	case models.RoleProgramManager:
		return []string{
			"suppliers:read", "suppliers:write",
			"affiliates:read", "affiliates:write",
			"assignments:read", "assignments:write",
			"deliverables:read", "deliverables:write",
			"alerts:read", "alerts:write",
			"analytics:read",
		}
	case models.RoleSupplierManager:
		return []string{
			"suppliers:read", "suppliers:write",
			"assignments:read",
			"deliverables:read",
			"alerts:read",
			"analytics:read",
		}
	case models.RoleAffiliateManager:
		return []string{
			"affiliates:read", "affiliates:write",
			"assignments:read", "assignments:write",
			"deliverables:read",
			"alerts:read",
			"analytics:read",
		}
	case models.RoleAffiliateUser:
		return []string{
			"suppliers:read",
			"assignments:read",
			"deliverables:read", "deliverables:write",
			"alerts:read",
		}
	case models.RoleSupplierUser:
		return []string{
			"suppliers:read:own",
			"deliverables:read:own",
			"assignments:read:own",
			"alerts:read:own",
		}
	case models.RoleViewer:
		return []string{
			"suppliers:read",
			"analytics:read",
		}
	default:
		return []string{}
	}
}

// HasPermission reports whether the user holds the permission
func HasPermission(user *models.User, permission string) bool {
	return contains(user.Permissions, permission)
}

// CreateUser registers an account with role-derived permissions
func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	if user.Status == "" {
		user.Status = models.UserActive
	}
	if len(user.Permissions) == 0 {
		user.Permissions = DefaultPermissions(user.Role)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, errors.Wrapf(err, "email %s already registered", user.Email)
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("user created")
	return user, nil
}

// GetUser fetches a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetUserByEmail fetches a user by email
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// ListUsers lists users matching the filter
func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	return s.repo.List(ctx, filter)
}

// UpdateUser applies profile changes to a user
func (s *UserService) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update user %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteUser removes an account
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete user %s", id)
	}
	log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// UpdateRole changes a user's role and rewrites the derived permissions
func (s *UserService) UpdateRole(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	updates := map[string]interface{}{
		"role":        role,
		"permissions": DefaultPermissions(role),
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, errors.Wrapf(err, "failed to update role for user %s", id)
	}

	log.Info().Str("user_id", id).Str("role", string(role)).Msg("user role updated")
	return s.repo.FindByID(ctx, id)
}

// UpdateStatus changes an account's status
func (s *UserService) UpdateStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, errors.Wrapf(err, "failed to update status for user %s", id)
	}
	return s.repo.FindByID(ctx, id)
}

// RecordLogin stamps the last login time
func (s *UserService) RecordLogin(ctx context.Context, id string) error {
	return s.repo.Update(ctx, id, map[string]interface{}{"last_login_at": time.Now()})
}

// LinkToSupplier associates an account with a supplier organization
func (s *UserService) LinkToSupplier(ctx context.Context, id, supplierID string) (*models.User, error) {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"supplier_id": supplierID}); err != nil {
		return nil, errors.Wrapf(err, "failed to link user %s to supplier", id)
	}
	return s.repo.FindByID(ctx, id)
}

// LinkToAffiliate associates an account with an affiliate organization
func (s *UserService) LinkToAffiliate(ctx context.Context, id, affiliateID string) (*models.User, error) {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"affiliate_id": affiliateID}); err != nil {
		return nil, errors.Wrapf(err, "failed to link user %s to affiliate", id)
	}
	return s.repo.FindByID(ctx, id)
}

// GetUserStats aggregates account counts by role and status
func (s *UserService) GetUserStats(ctx context.Context) (*UserStats, error) {
	users, err := s.repo.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		Total:    int64(len(users)),
		ByRole:   make(map[models.UserRole]int64),
		ByStatus: make(map[models.UserStatus]int64),
	}
	for _, u := range users {
		stats.ByRole[u.Role]++
		stats.ByStatus[u.Status]++
	}
	return stats, nil
}
