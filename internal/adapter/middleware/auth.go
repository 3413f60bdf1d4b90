package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
)

// PrincipalKey is where Protected stores the resolved principal in the
// request locals.
const PrincipalKey = "principal"

// Protected resolves the bearer token into a Principal and aborts with
// 401 when that fails. Handlers behind it read the principal via
// PrincipalFromCtx.
func Protected(resolver *auth.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing bearer token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Authorization header"})
		}

		principal, err := resolver.Resolve(c.Context(), parts[1])
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by Protected, or nil
// when the route is not behind it.
func PrincipalFromCtx(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(PrincipalKey).(*auth.Principal)
	return p
}
