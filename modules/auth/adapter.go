package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/taskboard/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface other modules use to manage identity.
type AuthPort interface {
	// Register creates an account. Expected failures come back in the
	// response's ErrorCode, not as an error.
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	// Login exchanges credentials for a session token, same outcome
	// convention as Register.
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	// VerifyToken resolves a session token to the acting identity.
	VerifyToken(ctx context.Context, token string) (*domain.Claims, error)
	// GetUser resolves a user ID. Returns (nil, nil) when the ID no
	// longer resolves, so dangling references are not errors.
	GetUser(ctx context.Context, userID string) (*UserInfo, error)
	// ListUsers returns all users ordered by username.
	ListUsers(ctx context.Context) ([]UserInfo, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Register creates a new user account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"register",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return RegisterResponse{}, fmt.Errorf("register request failed: %w", err)
	}
	return resp, nil
}

// Login exchanges credentials for a session token.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return LoginResponse{}, fmt.Errorf("login request failed: %w", err)
	}
	return resp, nil
}

// VerifyToken validates a session token and returns claims.
func (a *AuthAdapter) VerifyToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	return &domain.Claims{
		UserID:   resp.UserID,
		Username: resp.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*UserInfo, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}

	if !resp.Found {
		return nil, nil
	}

	return resp.User, nil
}

// ListUsers retrieves all users.
func (a *AuthAdapter) ListUsers(ctx context.Context) ([]UserInfo, error) {
	req := ListUsersRequest{}
	var resp ListUsersResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-users",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-users request failed: %w", err)
	}

	return resp.Users, nil
}
