package events

import (
	"time"

	"github.com/civic-desk/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
)

// Actor describes who caused an event. An empty UserID means an anonymous citizen.
type Actor struct {
	Role     domain.Role `json:"role,omitempty"`
	UserID   *string     `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	TicketNumber string    `json:"ticket_number"`
	Actor        Actor     `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

type TicketCreatedPayload struct {
	Category   domain.Category       `json:"category"`
	Priority   domain.TicketPriority `json:"priority"`
	Confidence float64               `json:"confidence"`
}

type TicketStatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	AdminNotes string              `json:"admin_notes,omitempty"`
}

type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}
