package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/service"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DashboardHandler serves the citizen and administrator dashboards.
type DashboardHandler struct {
	auth    *service.AuthService
	tickets *service.TicketService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(authService *service.AuthService, ticketService *service.TicketService) *DashboardHandler {
	return &DashboardHandler{auth: authService, tickets: ticketService}
}

// Profile GET /api/dashboard/user/profile.
func (h *DashboardHandler) Profile(c *fiber.Ctx) error {
	user, err := submitter(c)
	if err != nil {
		return err
	}
	profile, err := h.auth.Profile(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewUserResponse(profile)})
}

// UserTickets GET /api/dashboard/user/tickets.
func (h *DashboardHandler) UserTickets(c *fiber.Ctx) error {
	user, err := submitter(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListForUser(c.UserContext(), user.ID, service.TicketListQuery{
		Status: c.Query("status"),
		Limit:  parseInt(c.Query("limit"), 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewTicketDetails(tickets)})
}

// AdminTickets GET /api/dashboard/admin/tickets.
func (h *DashboardHandler) AdminTickets(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	tickets, err := h.tickets.ListAll(c.UserContext(), service.TicketListQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       dto.NewAdminTicketDetails(tickets),
		"pagination": dto.Pagination{Page: page, PageSize: pageSize, Count: len(tickets)},
	})
}

// Stats GET /api/dashboard/admin/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.tickets.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// UpdateTicket PUT /api/dashboard/admin/tickets/:ticketNumber.
func (h *DashboardHandler) UpdateTicket(c *fiber.Ctx) error {
	admin, err := submitter(c)
	if err != nil {
		return err
	}
	var req dto.TicketUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), admin, c.Params("ticketNumber"), req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewTicketDetail(*ticket)})
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
