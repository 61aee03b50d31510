package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTicket() *Ticket {
	return &Ticket{
		TicketNumber:    "MCB-1-abc",
		Username:        "kumar",
		OriginalMessage: "ward 5 kuppai edukkappa villai",
		Category:        CategoryWasteManagement,
		Priority:        TicketPriorityMedium,
		Status:          TicketStatusOpen,
		Confidence:      0.9,
	}
}

func TestTicketValidate(t *testing.T) {
	require.NoError(t, validTicket().Validate())

	mutations := map[string]func(*Ticket){
		"missing number":     func(tk *Ticket) { tk.TicketNumber = " " },
		"missing message":    func(tk *Ticket) { tk.OriginalMessage = "" },
		"missing username":   func(tk *Ticket) { tk.Username = "" },
		"unknown category":   func(tk *Ticket) { tk.Category = "Electricity" },
		"unknown priority":   func(tk *Ticket) { tk.Priority = "critical" },
		"unknown status":     func(tk *Ticket) { tk.Status = "pending" },
		"confidence too big": func(tk *Ticket) { tk.Confidence = 1.2 },
		"half resolved": func(tk *Ticket) {
			by := "admin-1"
			tk.ResolvedBy = &by
		},
	}
	for name, mutate := range mutations {
		tk := validTicket()
		mutate(tk)
		err := tk.Validate()
		assert.ErrorIs(t, err, ErrInvalidTicket, name)
	}

	tk := validTicket()
	by, at := "admin-1", time.Now()
	tk.ResolvedBy, tk.ResolvedAt = &by, &at
	assert.NoError(t, tk.Validate())
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, TicketStatusOpen.CanTransitionTo(TicketStatusInProgress))
	assert.True(t, TicketStatusOpen.CanTransitionTo(TicketStatusResolved))
	assert.True(t, TicketStatusInProgress.CanTransitionTo(TicketStatusResolved))
	assert.True(t, TicketStatusResolved.CanTransitionTo(TicketStatusClosed))
	assert.True(t, TicketStatusResolved.CanTransitionTo(TicketStatusResolved))

	assert.False(t, TicketStatusResolved.CanTransitionTo(TicketStatusOpen))
	assert.False(t, TicketStatusClosed.CanTransitionTo(TicketStatusInProgress))
	assert.False(t, TicketStatusOpen.CanTransitionTo("reopened"))
}

func TestParseEnums(t *testing.T) {
	s, ok := ParseTicketStatus(" In_Progress ")
	assert.True(t, ok)
	assert.Equal(t, TicketStatusInProgress, s)

	_, ok = ParseTicketStatus("pending")
	assert.False(t, ok)

	p, ok := ParseTicketPriority("URGENT")
	assert.True(t, ok)
	assert.Equal(t, TicketPriorityUrgent, p)
}
