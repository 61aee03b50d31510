package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civic-desk/complaint-service/internal/domain"
)

// InMemoryTicketRepository keeps tickets in process memory. It backs the
// service when no database is configured and doubles as a test fake.
type InMemoryTicketRepository struct {
	mu       sync.RWMutex
	byNumber map[string]*memoryTicket
	seq      int64
	now      func() time.Time
}

type memoryTicket struct {
	ticket domain.Ticket
	seq    int64
}

// NewInMemoryTicketRepository builds an empty store.
func NewInMemoryTicketRepository() *InMemoryTicketRepository {
	return &InMemoryTicketRepository{
		byNumber: make(map[string]*memoryTicket),
		now:      time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (r *InMemoryTicketRepository) WithClock(now func() time.Time) *InMemoryTicketRepository {
	r.now = now
	return r
}

func (r *InMemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNumber[ticket.TicketNumber]; exists {
		return ErrDuplicateTicketNumber
	}
	now := r.now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.seq++
	r.byNumber[ticket.TicketNumber] = &memoryTicket{ticket: cloneTicket(*ticket), seq: r.seq}
	return nil
}

func (r *InMemoryTicketRepository) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byNumber[number]
	if !ok {
		return nil, ErrNotFound
	}
	t := cloneTicket(rec.ticket)
	return &t, nil
}

func (r *InMemoryTicketRepository) ListBySubmitter(_ context.Context, submitter Submitter, filter TicketFilter) ([]domain.Ticket, error) {
	return r.list(filter, func(t *domain.Ticket) bool { return matchesSubmitter(t, submitter) }), nil
}

func (r *InMemoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	return r.list(filter, func(*domain.Ticket) bool { return true }), nil
}

func (r *InMemoryTicketRepository) FindRecentOpen(_ context.Context, submitter Submitter, category domain.Category, since time.Time) (*domain.Ticket, error) {
	matches := r.list(TicketFilter{
		Statuses:   []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
		Categories: []domain.Category{category},
		Limit:      maxListLimit,
	}, func(t *domain.Ticket) bool {
		return matchesSubmitter(t, submitter) && !t.CreatedAt.Before(since)
	})
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return &matches[0], nil
}

func (r *InMemoryTicketRepository) UpdateStatus(_ context.Context, number string, update StatusUpdate) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byNumber[number]
	if !ok {
		return nil, ErrNotFound
	}
	t := &rec.ticket
	if update.ExpectedStatus != nil && t.Status != *update.ExpectedStatus {
		return nil, ErrStaleStatus
	}
	if update.Status != nil {
		t.Status = *update.Status
	}
	if update.AdminNotes != nil {
		t.AdminNotes = *update.AdminNotes
	}
	if update.Priority != nil {
		t.Priority = *update.Priority
	}
	if update.ResolvedBy != nil {
		by := *update.ResolvedBy
		t.ResolvedBy = &by
	}
	if update.ResolvedAt != nil {
		at := *update.ResolvedAt
		t.ResolvedAt = &at
	}
	t.UpdatedAt = r.now()

	out := cloneTicket(*t)
	return &out, nil
}

func (r *InMemoryTicketRepository) Aggregate(_ context.Context) (*domain.TicketStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := newTicketStats()
	for _, rec := range r.byNumber {
		stats.add(rec.ticket.Status, rec.ticket.Category, rec.ticket.Priority, 1)
	}
	return stats.TicketStats, nil
}

func (r *InMemoryTicketRepository) list(filter TicketFilter, keep func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.RLock()
	recs := make([]*memoryTicket, 0, len(r.byNumber))
	for _, rec := range r.byNumber {
		if keep(&rec.ticket) && matchesFilter(&rec.ticket, filter) {
			recs = append(recs, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.ticket.CreatedAt.Equal(b.ticket.CreatedAt) {
			return a.ticket.CreatedAt.After(b.ticket.CreatedAt)
		}
		return a.seq > b.seq
	})

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	result := []domain.Ticket{}
	for i := offset; i < len(recs) && len(result) < limit; i++ {
		result = append(result, cloneTicket(recs[i].ticket))
	}
	return result
}

func matchesSubmitter(t *domain.Ticket, submitter Submitter) bool {
	if submitter.UserID != nil {
		return t.UserID != nil && *t.UserID == *submitter.UserID
	}
	return t.Username == submitter.Username
}

func matchesFilter(t *domain.Ticket, filter TicketFilter) bool {
	return contains(filter.Statuses, t.Status) &&
		contains(filter.Priorities, t.Priority) &&
		contains(filter.Categories, t.Category)
}

// contains treats an empty set as "match all".
func contains[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.UserID != nil {
		id := *t.UserID
		t.UserID = &id
	}
	if t.ResolvedBy != nil {
		by := *t.ResolvedBy
		t.ResolvedBy = &by
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		t.ResolvedAt = &at
	}
	return t
}
