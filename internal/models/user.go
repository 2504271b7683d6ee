package models

import "time"

// UserRole is the closed set of roles known to the application. Role checks
// go through typed constants so an invalid role string is unrepresentable
// past the persistence boundary.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleSupervisor UserRole = "supervisor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether the role is one of the known constants.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Actor is the acting principal passed explicitly into policy and workflow
// decisions. It is derived from JWT claims at the handler boundary; nothing
// below the handlers reads the current user from ambient context.
type Actor struct {
	ID   string
	Name string
	Role UserRole
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
