package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/service"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// ChatHandler exposes the citizen chat intake and public ticket lookups.
type ChatHandler struct {
	intake  *service.IntakeService
	tickets *service.TicketService
	logger  *zap.Logger
}

// NewChatHandler constructs handler.
func NewChatHandler(intake *service.IntakeService, tickets *service.TicketService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{intake: intake, tickets: tickets, logger: logger}
}

// Submit handles POST /api/chat/message.
func (h *ChatHandler) Submit(c *fiber.Ctx) (err error) {
	var req dto.ChatMessageRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		req = dto.ChatMessageRequest{}
	}

	intakeReq := service.IntakeRequest{Message: req.Message, Username: req.Username}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		intakeReq.Submitter = principal.User
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("intake panicked", zap.Any("panic", r))
			err = serverError(fmt.Errorf("intake panic: %v", r))
		}
	}()

	result, err := h.intake.Submit(c.UserContext(), intakeReq)
	if err != nil {
		if domainErr := apperrors.ToDomainError(err); domainErr.HTTPStatus < 500 {
			return domainErr
		}
		return serverError(err)
	}
	return c.JSON(dto.NewChatMessageResponse(result))
}

// ListByUsername handles GET /api/chat/tickets/:username.
func (h *ChatHandler) ListByUsername(c *fiber.Ctx) error {
	viewer, err := submitter(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListForSubmitter(c.UserContext(), viewer, c.Params("username"), service.TicketListQuery{
		Status: c.Query("status"),
		Limit:  parseInt(c.Query("limit"), 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewTicketSummaries(tickets)})
}

// GetByNumber handles GET /api/chat/ticket/:ticketNumber.
func (h *ChatHandler) GetByNumber(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetByNumber(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewTicketDetail(*ticket)})
}

func serverError(cause error) error {
	return &apperrors.DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: fiber.StatusInternalServerError,
		Details:    map[string]any{"response": service.MsgServerError},
		Err:        cause,
	}
}

// submitter returns the authenticated account, which protected routes guarantee.
func submitter(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized()
	}
	return principal.User, nil
}
