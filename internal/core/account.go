package core

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is the stored identity record. PasswordHash is always a bcrypt
// digest and never leaves the process.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string `json:"-"`
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the client-visible projection of an Account.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      a.Role,
	}
}

func (a *Account) Identity() Identity {
	return Identity{AccountID: a.ID, Email: a.Email, Role: a.Role}
}

// NormalizeEmail makes email lookups case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
