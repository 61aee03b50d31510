package dto

import (
	"time"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/service"
)

// TicketSummary is the list view a citizen sees.
type TicketSummary struct {
	TicketNumber    string                `json:"ticketNumber"`
	Category        domain.Category       `json:"category"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	OriginalMessage string                `json:"originalMessage"`
	Translation     string                `json:"translation"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// TicketDetail provides full ticket info.
type TicketDetail struct {
	ID                 string                `json:"id"`
	TicketNumber       string                `json:"ticketNumber"`
	Username           string                `json:"username"`
	UserID             *string               `json:"userId,omitempty"`
	Category           domain.Category       `json:"category"`
	Status             domain.TicketStatus   `json:"status"`
	Priority           domain.TicketPriority `json:"priority"`
	OriginalMessage    string                `json:"originalMessage"`
	Translation        string                `json:"translation"`
	Confidence         float64               `json:"confidence"`
	Reason             string                `json:"reason"`
	AIResponse         string                `json:"aiResponse"`
	AdminNotes         string                `json:"adminNotes,omitempty"`
	ResolvedBy         *string               `json:"resolvedBy,omitempty"`
	ResolvedByUsername string                `json:"resolvedByUsername,omitempty"`
	ResolvedAt         *time.Time            `json:"resolvedAt,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// TicketUpdateRequest is the administrator's partial update body.
type TicketUpdateRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
	Priority   *string `json:"priority"`
}

// ToInput converts the request to the service input.
func (r TicketUpdateRequest) ToInput() service.TicketUpdateInput {
	return service.TicketUpdateInput{Status: r.Status, AdminNotes: r.AdminNotes, Priority: r.Priority}
}

// Pagination echoes the page that was served.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Count    int `json:"count"`
}

func NewTicketSummary(t domain.Ticket) TicketSummary {
	return TicketSummary{
		TicketNumber:    t.TicketNumber,
		Category:        t.Category,
		Status:          t.Status,
		Priority:        t.Priority,
		OriginalMessage: t.OriginalMessage,
		Translation:     t.Translation,
		CreatedAt:       t.CreatedAt,
	}
}

func NewTicketSummaries(tickets []domain.Ticket) []TicketSummary {
	out := make([]TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketSummary(t))
	}
	return out
}

func NewTicketDetail(t domain.Ticket) TicketDetail {
	return TicketDetail{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		Username:        t.Username,
		UserID:          t.UserID,
		Category:        t.Category,
		Status:          t.Status,
		Priority:        t.Priority,
		OriginalMessage: t.OriginalMessage,
		Translation:     t.Translation,
		Confidence:      t.Confidence,
		Reason:          t.Reason,
		AIResponse:      t.AIResponse,
		AdminNotes:      t.AdminNotes,
		ResolvedBy:      t.ResolvedBy,
		ResolvedAt:      t.ResolvedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func NewTicketDetails(tickets []domain.Ticket) []TicketDetail {
	out := make([]TicketDetail, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketDetail(t))
	}
	return out
}

func NewAdminTicketDetails(tickets []service.AdminTicket) []TicketDetail {
	out := make([]TicketDetail, 0, len(tickets))
	for _, t := range tickets {
		d := NewTicketDetail(t.Ticket)
		d.ResolvedByUsername = t.ResolvedByUsername
		out = append(out, d)
	}
	return out
}
