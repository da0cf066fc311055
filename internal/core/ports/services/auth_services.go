package services

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/dto"
)

// AuthSvcFacade handles signup and login.
type AuthSvcFacade interface {
	// Signup registers a company together with its first (admin) user and
	// returns a logged-in session.
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error)

	// Login authenticates by email and password and returns a JWT session.
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}
