// internal/domain/auth/dto.go
package auth

import "time"

// LoginRequest for email/password login
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	ClientID  string `json:"-"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// SignupRequest for user registration. The name and gender fields are kept
// as signup metadata on the provider record; profile row creation happens
// in the completion flow.
type SignupRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Gender          string `json:"gender"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	IPAddress       string `json:"-"`
	UserAgent       string `json:"-"`
}

// AuthResponse is returned by login and the OAuth callback. RedirectTo
// carries the gate decision: the consumed redirect hint, the
// profile-completion route, or home.
type AuthResponse struct {
	AccessToken   string    `json:"access_token,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	TokenType     string    `json:"token_type,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	NeedsProfile  bool      `json:"needs_profile"`
	RedirectTo    string    `json:"redirect_to"`
	User          UserInfo  `json:"user"`
}

// SignupResponse points the client at the verification waiting page.
type SignupResponse struct {
	IdentityID int64  `json:"identity_id"`
	RedirectTo string `json:"redirect_to"`
}

// UserInfo minimal user information
type UserInfo struct {
	IdentityID int64  `json:"identity_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// ResendVerificationRequest re-sends the signup verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ValidationFailure carries itemized client-side validation errors. The
// request is rejected before any store write happens.
type ValidationFailure struct {
	Errors []string `json:"errors"`
}
