package model

// User represents a registered account in the database.
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
}

// SignupRequest represents a new account registration request.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data safe for API responses (no password digest).
type UserResponse struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Todos    []TodoResponse `json:"todos"`
}

// UserWithToken is a UserResponse plus a freshly issued bearer token.
type UserWithToken struct {
	UserResponse
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenResponse represents a bare bearer token issued on login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UpdateUserRequest carries a username change. The handler rejects any other
// field, so this is the full shape of the PATCH body.
type UpdateUserRequest struct {
	Username *string `json:"username"`
}

// ChangePasswordRequest re-verifies the current password before changing it.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// DeleteUserRequest re-verifies the password before deleting the account.
type DeleteUserRequest struct {
	Password string `json:"password"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password reset flow; the token itself
// travels in the query string.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}
