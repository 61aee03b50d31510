package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

func (p *Principal) ID() string       { return p.User.ID }
func (p *Principal) Username() string { return p.User.Username }
func (p *Principal) IsAdmin() bool    { return p != nil && p.User.IsAdmin() }

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	if principal == nil {
		return apperrors.NewUnauthorized()
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Optional attaches a principal when a valid token is present and lets every
// request through.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	if principal, err := m.resolve(c); err == nil && principal != nil {
		c.Locals(principalKey, principal)
	}
	return c.Next()
}

// resolve returns (nil, nil) when the caller is anonymous or the token is bad.
// Errors are reserved for store failures.
func (m *AuthMiddleware) resolve(c *fiber.Ctx) (*Principal, error) {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, nil
	}

	claims, err := m.tokens.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil
	}

	user, err := m.users.GetByID(c.UserContext(), claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Principal{User: user}, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}
