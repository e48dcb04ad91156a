package models

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleConsumer UserRole = "consumer"
	UserRoleFarmer   UserRole = "farmer"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleConsumer, UserRoleFarmer, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func ParseUserRole(s string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusApproved:
		return true
	default:
		return false
	}
}

func ParseUserStatus(s string) (UserStatus, error) {
	status := UserStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// InitialStatus is the status a freshly registered account starts in. Only
// farmers wait for an admin; everyone else can act immediately.
func InitialStatus(role UserRole) UserStatus {
	switch role {
	case UserRoleFarmer:
		return UserStatusPending
	case UserRoleConsumer, UserRoleAdmin:
		return UserStatusApproved
	default:
		return UserStatusPending
	}
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) IsApprovedFarmer() bool {
	return u.Role == UserRoleFarmer && u.Status == UserStatusApproved
}
