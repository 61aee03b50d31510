package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// statusRank orders statuses along the one-directional lifecycle.
var statusRank = map[TicketStatus]int{
	TicketStatusOpen:       0,
	TicketStatusInProgress: 1,
	TicketStatusResolved:   2,
	TicketStatusClosed:     3,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next follows the lifecycle.
// Staying on the same status is allowed.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// ParseTicketStatus maps free text onto a status.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	s := TicketStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// ParseTicketPriority maps free text onto a priority.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	p := TicketPriority(strings.ToLower(strings.TrimSpace(raw)))
	return p, p.Valid()
}

// Ticket is one municipal complaint and its resolution lifecycle.
type Ticket struct {
	ID              string
	TicketNumber    string
	Username        string
	UserID          *string
	OriginalMessage string
	Translation     string
	Category        Category
	Priority        TicketPriority
	Status          TicketStatus
	Confidence      float64
	Reason          string
	AIResponse      string
	AdminNotes      string
	ResolvedBy      *string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ErrInvalidTicket is wrapped by every Validate failure.
var ErrInvalidTicket = errors.New("invalid ticket")

// Validate checks the invariants that must hold before a ticket is persisted.
func (t *Ticket) Validate() error {
	switch {
	case strings.TrimSpace(t.TicketNumber) == "":
		return fmt.Errorf("%w: ticket number required", ErrInvalidTicket)
	case strings.TrimSpace(t.OriginalMessage) == "":
		return fmt.Errorf("%w: original message required", ErrInvalidTicket)
	case strings.TrimSpace(t.Username) == "":
		return fmt.Errorf("%w: username required", ErrInvalidTicket)
	case !t.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTicket, t.Category)
	case !t.Priority.Valid():
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTicket, t.Priority)
	case !t.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTicket, t.Status)
	case t.Confidence < 0 || t.Confidence > 1:
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidTicket, t.Confidence)
	case (t.ResolvedBy != nil) != (t.ResolvedAt != nil):
		return fmt.Errorf("%w: resolvedBy and resolvedAt must be set together", ErrInvalidTicket)
	}
	return nil
}

// TicketStats aggregates ticket counts for the administrator overview.
type TicketStats struct {
	TotalUsers      int64                    `json:"totalUsers"`
	TotalTickets    int64                    `json:"totalTickets"`
	OpenTickets     int64                    `json:"openTickets"`
	ResolvedTickets int64                    `json:"resolvedTickets"`
	UrgentTickets   int64                    `json:"urgentTickets"`
	ByStatus        map[TicketStatus]int64   `json:"ticketsByStatus"`
	ByCategory      map[Category]int64       `json:"ticketsByCategory"`
	ByPriority      map[TicketPriority]int64 `json:"ticketsByPriority"`
}
