package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

type authService struct {
	userRepo    repositories.UserRepositoryFacade
	companyRepo repositories.CompanyRepositoryFacade

	jwtSecret string
	jwtExpiry time.Duration
	jwtIssuer string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepositoryFacade, companyRepo repositories.CompanyRepositoryFacade, jwtSecret string, jwtExpiry time.Duration, jwtIssuer string) portssvc.AuthSvcFacade {
	return &authService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
		jwtIssuer:   jwtIssuer,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Signup registers a company together with its first user, who becomes the
// company admin, and returns a logged-in session.
func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.userRepo.FindUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s is already registered", apperrors.ErrDuplicate, req.Email)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	adminID := uuid.NewString()
	company := domain.Company{
		CompanyID:    uuid.NewString(),
		Name:         req.CompanyName,
		CurrencyCode: strings.ToUpper(req.CurrencyCode),
		Country:      req.Country,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     adminID,
			LastUpdatedAt: now,
			LastUpdatedBy: adminID,
		},
	}
	admin := domain.User{
		UserID:       adminID,
		CompanyID:    company.CompanyID,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         domain.RoleAdmin,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     adminID,
			LastUpdatedAt: now,
			LastUpdatedBy: adminID,
		},
	}

	if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to save company: %w", err)
	}
	if err := s.userRepo.SaveUser(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to save admin user: %w", err)
	}

	logger.Info("Company registered", "company_id", company.CompanyID, "admin_user_id", admin.UserID)
	return s.buildSession(&admin)
}

// Login authenticates by email and password and returns a JWT session.
// Invalid email and invalid password are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("Login failed", "email", req.Email)
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}

	logger.Info("Login succeeded", "user_id", user.UserID)
	return s.buildSession(user)
}

func (s *authService) buildSession(user *domain.User) (*dto.AuthResponse, error) {
	token, err := utils.GenerateJWT(user.UserID, s.jwtSecret, s.jwtExpiry, s.jwtIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.jwtExpiry),
		User:        dto.ToUserResponse(user),
	}, nil
}
