// Package models holds the client-side data shapes exchanged with the
// service: user records, auth payloads and document jobs.
package models

// Provider tells how a user account authenticates.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// User is an immutable snapshot of an account as returned by the service.
// It is replaced wholesale on every auth event, never patched.
type User struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Provider          Provider `json:"provider"`
	ProfilePicture    string   `json:"profilePicture,omitempty"`
	EmailVerified     bool     `json:"emailVerified"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
	PasswordUpdatedAt string   `json:"passwordUpdatedAt,omitempty"`
}

// Clone returns a copy of u, or nil for nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// AuthResponse is the data payload of signup, login, reset-password and
// OAuth success responses.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}
