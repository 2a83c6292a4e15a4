package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	user "github.com/example/taskboard/domain/user"
)

type staticVerifier struct {
	claims *user.Claims
}

func (v *staticVerifier) VerifyToken(_ context.Context, token string) (*user.Claims, error) {
	if token != "valid" {
		return nil, errors.New("invalid token")
	}
	return v.claims, nil
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &staticVerifier{claims: &user.Claims{UserID: "u1", Username: "alice"}}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/protected", AuthMiddleware(verifier), func(c *fiber.Ctx) error {
		claims := claimsFromCtx(c)
		if claims == nil {
			return fiber.ErrInternalServerError
		}
		return c.SendString(claims.Username)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"empty token", "Bearer ", fiber.StatusUnauthorized},
		{"invalid token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer valid", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}
