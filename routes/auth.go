package routes

import (
	"catalog/apperr"
	"catalog/auth"
	"catalog/models"
	"catalog/services"

	"github.com/gofiber/fiber/v2"
)

type authHandler struct {
	accounts *services.AccountService
	tokens   *auth.TokenManager
}

// registerAdmin is open until the first admin exists; after that only an admin
// may create further admins.
func (h *authHandler) registerAdmin(c *fiber.Ctx) error {
	exists, err := h.accounts.AdminExists(c.UserContext())
	if err != nil {
		return err
	}
	if exists {
		claims, err := bearerClaims(c, h.tokens)
		if err != nil {
			return err
		}
		if claims == nil {
			return apperr.Auth("an admin already exists; sign in as admin to add another")
		}
		if claims.Role != models.RoleAdmin {
			return apperr.Forbidden("admin role required")
		}
	}
	return h.register(c, models.RoleAdmin)
}

func (h *authHandler) registerUser(c *fiber.Ctx) error {
	return h.register(c, models.RoleUser)
}

func (h *authHandler) register(c *fiber.Ctx, role models.Role) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Validation("cannot parse request body")
	}
	acc, err := h.accounts.Register(c.UserContext(), role, in)
	if err != nil {
		return err
	}
	return created(c, "Account created successfully", acc)
}

func (h *authHandler) login(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.LoginInput
		if err := c.BodyParser(&in); err != nil {
			return apperr.Validation("cannot parse request body")
		}
		session, err := h.accounts.Login(c.UserContext(), role, in)
		if err != nil {
			return err
		}
		return ok(c, "Login successful", session)
	}
}

func (h *authHandler) me(c *fiber.Ctx) error {
	acc, err := h.accounts.Find(c.UserContext(), claimsFrom(c))
	if err != nil {
		return err
	}
	return ok(c, "Account retrieved successfully", acc)
}

func (h *authHandler) changePassword(c *fiber.Ctx) error {
	var in services.PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return apperr.Validation("cannot parse request body")
	}
	if err := h.accounts.ChangePassword(c.UserContext(), claimsFrom(c), in); err != nil {
		return err
	}
	return ok(c, "Password updated successfully", nil)
}
