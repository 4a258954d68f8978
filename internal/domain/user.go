package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the access level of an admin-console user.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

func (r UserRole) String() string { return string(r) }

// IsValid reports whether the role is one of the known values.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is an admin-console account. Customers never have accounts; they only
// see their balance through a shared link.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}
