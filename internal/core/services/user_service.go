package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/expenseflow/expense_management_app/internal/utils"
	"github.com/google/uuid"
)

type userService struct {
	userRepo repositories.UserRepositoryFacade
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// ListUsers retrieves all active users of the requesting user's company.
// Every member may list; names are needed when picking approvers.
func (s *userService) ListUsers(ctx context.Context, requestingUserID string) ([]domain.User, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}

	users, err := s.userRepo.FindUsersByCompany(ctx, requester.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for company %s: %w", requester.CompanyID, err)
	}
	return users, nil
}

// CreateUser creates a user inside the creator's company. Admin only.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	creator, err := s.userRepo.FindUserByID(ctx, creatorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creating user: %w", err)
	}
	if !creator.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can create users", apperrors.ErrForbidden)
	}

	existing, err := s.userRepo.FindUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s is already registered", apperrors.ErrDuplicate, req.Email)
	}

	if req.ManagerID != nil {
		if err := s.validateManagerRef(ctx, *req.ManagerID, creator.CompanyID); err != nil {
			return nil, err
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		CompanyID:    creator.CompanyID,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
		ManagerID:    req.ManagerID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("User created", "new_user_id", user.UserID, "role", string(user.Role))
	return &user, nil
}

// UpdateUser updates name, role or manager reference. Admin only.
func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, updaterUserID string) (*domain.User, error) {
	updater, err := s.userRepo.FindUserByID(ctx, updaterUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get updating user: %w", err)
	}
	if !updater.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can update users", apperrors.ErrForbidden)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	if user.CompanyID != updater.CompanyID {
		return nil, fmt.Errorf("%w: user belongs to a different company", apperrors.ErrForbidden)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.ManagerID != nil {
		if *req.ManagerID == userID {
			return nil, fmt.Errorf("%w: a user cannot be their own manager", apperrors.ErrValidation)
		}
		if err := s.validateManagerRef(ctx, *req.ManagerID, updater.CompanyID); err != nil {
			return nil, err
		}
		user.ManagerID = req.ManagerID
	}
	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = updaterUserID

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("User updated", "updated_user_id", userID)
	return user, nil
}

// DeleteUser soft-deletes a user. Admin only. The user's name stays
// snapshotted inside any approval history that references them.
func (s *userService) DeleteUser(ctx context.Context, userID string, deleterUserID string) error {
	deleter, err := s.userRepo.FindUserByID(ctx, deleterUserID)
	if err != nil {
		return fmt.Errorf("failed to get deleting user: %w", err)
	}
	if !deleter.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete users", apperrors.ErrForbidden)
	}
	if userID == deleterUserID {
		return fmt.Errorf("%w: cannot delete your own account", apperrors.ErrConflict)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	if user.CompanyID != deleter.CompanyID {
		return fmt.Errorf("%w: user belongs to a different company", apperrors.ErrForbidden)
	}

	if err := s.userRepo.MarkUserDeleted(ctx, userID, deleterUserID); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("User deleted", "deleted_user_id", userID)
	return nil
}

func (s *userService) validateManagerRef(ctx context.Context, managerID string, companyID string) error {
	manager, err := s.userRepo.FindUserByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: manager %s not found", apperrors.ErrValidation, managerID)
		}
		return fmt.Errorf("failed to get manager %s: %w", managerID, err)
	}
	if manager.CompanyID != companyID {
		return fmt.Errorf("%w: manager belongs to a different company", apperrors.ErrValidation)
	}
	return nil
}
