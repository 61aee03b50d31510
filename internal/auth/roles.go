package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// RequireAdmin rejects callers that are not administrators. It must run after
// AuthMiddleware.Handle.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized()
		}
		if !principal.IsAdmin() {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}

// RequireOwnerOrAdmin lets administrators through, and other callers only when
// the route parameter names them by username or id.
func RequireOwnerOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized()
		}
		if principal.IsAdmin() {
			return c.Next()
		}
		owner := c.Params(param)
		if owner == "" || (owner != principal.Username() && owner != principal.ID()) {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}
