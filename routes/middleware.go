package routes

import (
	"strings"

	"catalog/apperr"
	"catalog/auth"
	"catalog/models"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// RequireAuth rejects requests without a valid bearer token and stores the
// token's claims in the request locals.
func RequireAuth(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(c, tokens)
		if err != nil {
			return err
		}
		if claims == nil {
			return apperr.Auth("missing bearer token")
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := claimsFrom(c)
		if claims == nil {
			return apperr.Auth("missing bearer token")
		}
		if claims.Role != role {
			return apperr.Forbidden("%s role required", role)
		}
		return c.Next()
	}
}

// bearerClaims returns nil claims and no error when the request carries no token.
func bearerClaims(c *fiber.Ctx, tokens *auth.TokenManager) (*auth.Claims, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, nil
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return nil, apperr.Auth("authorization header must be a bearer token")
	}
	claims, err := tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, apperr.Auth("invalid or expired token")
	}
	return claims, nil
}

func claimsFrom(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}
