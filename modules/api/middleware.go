package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	user "github.com/example/taskboard/domain/user"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// TokenVerifier resolves a session token to the acting identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*user.Claims, error)
}

// AuthMiddleware creates a middleware that validates bearer tokens and
// stores the resolved claims under UserContextKey.
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		claims, err := verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)

		return c.Next()
	}
}

// claimsFromCtx returns the authenticated identity stored by
// AuthMiddleware, or nil on unauthenticated routes.
func claimsFromCtx(c *fiber.Ctx) *user.Claims {
	claims, _ := c.Locals(UserContextKey).(*user.Claims)
	return claims
}
