package auth

// UserInfo is the public projection of a user shared with other modules.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outcome codes carried by RegisterResponse and LoginResponse. Errors
// crossing the service bus lose their Go type, so expected failures
// travel as data and callers map them back to transport responses.
const (
	ErrCodeValidation         = "validation"
	ErrCodeUserExists         = "user_exists"
	ErrCodeUserNotFound       = "user_not_found"
	ErrCodeInvalidCredentials = "invalid_credentials"
)

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	ID           string `json:"id,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the outcome of a login attempt.
type LoginResponse struct {
	Token        string `json:"token,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response. Found is false when
// the ID no longer resolves (dangling reference).
type GetUserResponse struct {
	Found bool      `json:"found"`
	User  *UserInfo `json:"user,omitempty"`
}

// ListUsersRequest represents a list users request.
type ListUsersRequest struct{}

// ListUsersResponse represents a list users response.
type ListUsersResponse struct {
	Users []UserInfo `json:"users"`
}
