package dto

import (
	"time"

	"github.com/civic-desk/complaint-service/internal/classifier"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/service"
)

// ChatMessageRequest is a citizen message submitted for intake.
type ChatMessageRequest struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// ChatTicketRef is the short ticket reference returned after creation.
type ChatTicketRef struct {
	ID           string              `json:"id"`
	TicketNumber string              `json:"ticketNumber"`
	Status       domain.TicketStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// ChatMessageResponse is the flat intake reply.
type ChatMessageResponse struct {
	Success       bool                  `json:"success"`
	TicketCreated bool                  `json:"ticketCreated"`
	TicketNumber  string                `json:"ticketNumber,omitempty"`
	Category      string                `json:"category,omitempty"`
	Priority      string                `json:"priority,omitempty"`
	Confidence    *float64              `json:"confidence,omitempty"`
	Translation   string                `json:"translation,omitempty"`
	Reason        string                `json:"reason,omitempty"`
	Response      string                `json:"response"`
	Analysis      *classifier.Judgement `json:"analysis,omitempty"`
	Ticket        *ChatTicketRef        `json:"ticket,omitempty"`
	DuplicateOf   string                `json:"duplicateOf,omitempty"`
	Message       string                `json:"message,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// NewChatMessageResponse shapes an intake result for the wire.
func NewChatMessageResponse(res *service.IntakeResult) ChatMessageResponse {
	analysis := res.Analysis
	out := ChatMessageResponse{
		Success:       true,
		TicketCreated: res.TicketCreated,
		Response:      res.Response,
		Analysis:      &analysis,
		DuplicateOf:   res.DuplicateOf,
		Error:         res.Error,
	}

	if res.Outcome == service.OutcomePersistFailed {
		return out
	}

	confidence := analysis.Confidence
	out.Category = analysis.Category
	out.Confidence = &confidence
	out.Translation = analysis.Translation
	out.Reason = analysis.Reason

	if res.DuplicateOf != "" {
		out.TicketNumber = res.DuplicateOf
	}
	if t := res.Ticket; res.TicketCreated && t != nil {
		out.TicketNumber = t.TicketNumber
		out.Category = string(t.Category)
		out.Priority = string(t.Priority)
		out.Ticket = &ChatTicketRef{
			ID:           t.ID,
			TicketNumber: t.TicketNumber,
			Status:       t.Status,
			CreatedAt:    t.CreatedAt,
		}
	}
	return out
}
