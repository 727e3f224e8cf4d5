package dto

import "time"

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Verified      bool       `json:"verified"`
	Subscribed    bool       `json:"subscribed"`
	SubscribedAt  *time.Time `json:"subscribed_at,omitempty"`
	AccountNumber string     `json:"account_number,omitempty"`
	PhoneNumber   string     `json:"phone_number,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AccountResponse combines the profile with the current balance.
type AccountResponse struct {
	User    UserResponse `json:"user"`
	Balance string       `json:"balance"`
}

// ContactDetailsRequest payload for PUT /me/contact.
type ContactDetailsRequest struct {
	AccountNumber string `json:"account_number"`
	PhoneNumber   string `json:"phone_number"`
}

// LeaderboardEntry is one ranked earner.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Earnings string `json:"earnings"`
}
