package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const (
	RoleMember UserRole = "member"
	RoleAdmin  UserRole = "admin"
)

// Identity is the authenticated caller attached to every request by the auth
// middleware. Token issuance lives outside this service; the identity is
// trusted as presented once the token signature checks out.
type Identity struct {
	ID    int32    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// IsAdmin reports whether the caller holds the elevated role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type JWTClaims struct {
	UserID int32    `json:"user_id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
