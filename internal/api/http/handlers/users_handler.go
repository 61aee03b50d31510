package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/service"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// UsersHandler exposes auth endpoints for citizens.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Signup handles POST /api/auth/signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, err := h.auth.Signup(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthResponse(user, token),
	})
}

// Login handles POST /api/auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, err := h.auth.Login(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthResponse(user, token),
	})
}

// Verify handles GET /api/auth/verify.
func (h *UsersHandler) Verify(c *fiber.Ctx) error {
	user, err := submitter(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"user": dto.NewUserResponse(user)},
	})
}
