package domain

import (
	"errors"
	"time"
)

// Role is the authority granted to a principal.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

var ErrPrincipalNotFound = errors.New("principal not found")
var ErrPrincipalExists = errors.New("principal already exists")

// Principal models an account that can authenticate against the API.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ErrInvalidPrincipal is returned when registration input is incomplete.
var ErrInvalidPrincipal = errors.New("invalid principal data")
