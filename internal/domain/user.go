package domain

import (
	"fmt"
	"strings"
)

// Role is the permission level of an operator account.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCashier Role = "CASHIER"
)

// ParseRole maps a stored role string onto a known Role, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCashier:
		return RoleCashier, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is an operator account. PasswordHash is a bcrypt hash, never the
// plain password.
type User struct {
	Username     string
	PasswordHash string
	Role         Role
}
