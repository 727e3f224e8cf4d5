package domain

import "time"

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleCreator Role = "CREATOR"
	RoleEngager Role = "ENGAGER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCreator, RoleEngager, RoleAdmin:
		return true
	}
	return false
}

// User is a marketplace participant.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	Verified      bool
	Subscribed    bool
	SubscribedAt  *time.Time
	AccountNumber string
	PhoneNumber   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
