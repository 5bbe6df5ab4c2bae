// internal/domain/user/dto.go
package user

// CompleteProfileRequest is the profile-completion submission. First name,
// last name and gender are required; mobile is optional.
type CompleteProfileRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Mobile    string `json:"mobile"`
	Gender    string `json:"gender" binding:"required"`
}

// UpdateProfileRequest updates the caller's own profile row.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
	Gender    string `json:"gender"`
}

// Prefill carries the editable fields pre-populated from provider-supplied
// OAuth metadata for the completion form.
type Prefill struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}
