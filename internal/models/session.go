package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role the gate issues; the admin identity is a
// single configured credential pair, not a user directory.
const RoleAdmin = "admin"

// SessionClaims is the payload carried by the admin session token.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
