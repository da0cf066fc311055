package domain

import "time"

// UserRole restricts what a user may do in the application.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

// User represents a user of the application in the domain.
// ManagerID is a weak reference: it stores the manager's UserID only and is
// resolved through a lookup at chain-build time, never held as an owning
// reference. A manager chain should not cycle; this is not validated here.
type User struct {
	UserID       string   `json:"userID"` // Primary Key (UUID)
	CompanyID    string   `json:"companyID"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-" db:"password_hash"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	ManagerID    *string  `json:"managerID,omitempty"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // Used for soft delete
}

// IsAdmin reports whether the user may manage users and approval rules.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
