package dto

import (
	"time"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// CreateUserRequest defines the data required to create a user inside the
// creator's company.
type CreateUserRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	Name      string          `json:"name" binding:"required"`
	Password  string          `json:"password" binding:"required,min=8"`
	Role      domain.UserRole `json:"role" binding:"required,oneof=admin manager employee"`
	ManagerID *string         `json:"managerID"`
}

// UpdateUserRequest defines the data allowed for updating a user.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateUserRequest struct {
	Name      *string          `json:"name"`
	Role      *domain.UserRole `json:"role" binding:"omitempty,oneof=admin manager employee"`
	ManagerID *string          `json:"managerID"`
}

// UserResponse defines the structure for API responses containing user details.
type UserResponse struct {
	UserID    string          `json:"userID"`
	CompanyID string          `json:"companyID"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      domain.UserRole `json:"role"`
	ManagerID *string         `json:"managerID,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ToUserResponse converts a domain.User to UserResponse DTO
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:    user.UserID,
		CompanyID: user.CompanyID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		ManagerID: user.ManagerID,
		CreatedAt: user.CreatedAt,
	}
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// ToListUsersResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUsersResponse(users []domain.User) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = ToUserResponse(&user)
	}
	return ListUsersResponse{Users: userResponses}
}
