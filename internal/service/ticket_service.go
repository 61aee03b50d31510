package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const (
	msgTicketNotFound       = "டிக்கெட் கிடைக்கவில்லை"
	defaultSubmitterListCap = 10
)

// TicketService serves the dashboards and the public ticket lookups.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	stats      repository.StatsCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	StatsCache repository.StatsCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// TicketListQuery holds the raw filter values accepted by the list endpoints.
// Empty strings mean "any".
type TicketListQuery struct {
	Status   string
	Priority string
	Category string
	Limit    int
	Offset   int
}

// TicketUpdateInput is an administrator's partial update. Nil fields are untouched.
type TicketUpdateInput struct {
	Status     *string
	AdminNotes *string
	Priority   *string
}

// AdminTicket pairs a ticket with the username of the administrator who resolved it.
type AdminTicket struct {
	domain.Ticket
	ResolvedByUsername string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		stats:      deps.StatsCache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.stats == nil {
		s.stats = repository.NewRedisStatsCache(nil, 0)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GetByNumber fetches one ticket.
func (s *TicketService) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// ListForSubmitter lists tickets filed under a display name, newest first.
// Display names are not unique, so only administrators list by name; any other
// viewer gets the tickets linked to their own account.
func (s *TicketService) ListForSubmitter(ctx context.Context, viewer *domain.User, username string, query TicketListQuery) ([]domain.Ticket, error) {
	if viewer == nil {
		return nil, apperrors.NewUnauthorized()
	}
	if query.Limit <= 0 {
		query.Limit = defaultSubmitterListCap
	}
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	submitter := repository.Submitter{Username: username}
	if !viewer.IsAdmin() {
		id := viewer.ID
		submitter = repository.Submitter{UserID: &id}
	}
	return s.tickets.ListBySubmitter(ctx, submitter, filter)
}

// ListForUser lists tickets linked to an account id, newest first.
func (s *TicketService) ListForUser(ctx context.Context, userID string, query TicketListQuery) ([]domain.Ticket, error) {
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	return s.tickets.ListBySubmitter(ctx, repository.Submitter{UserID: &userID}, filter)
}

// ListAll lists every ticket matching the query for administrators.
func (s *TicketService) ListAll(ctx context.Context, query TicketListQuery) ([]AdminTicket, error) {
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	resolvers := map[string]string{}
	out := make([]AdminTicket, 0, len(tickets))
	for _, t := range tickets {
		item := AdminTicket{Ticket: t}
		if t.ResolvedBy != nil {
			item.ResolvedByUsername = s.resolverName(ctx, *t.ResolvedBy, resolvers)
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *TicketService) resolverName(ctx context.Context, id string, cache map[string]string) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := ""
	if user, err := s.users.GetByID(ctx, id); err == nil {
		name = user.Username
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("resolver lookup failed", zap.String("user_id", id), zap.Error(err))
	}
	cache[id] = name
	return name
}

// UpdateTicket applies an administrator's change. Status only moves forward along
// open, in_progress, resolved, closed. Reaching resolved stamps the acting
// administrator and the time.
func (s *TicketService) UpdateTicket(ctx context.Context, admin *domain.User, number string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Status == nil && input.AdminNotes == nil && input.Priority == nil {
		return nil, apperrors.NewValidationError("no changes supplied", nil)
	}

	current, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, mapTicketError(err)
	}

	update := repository.StatusUpdate{ExpectedStatus: &current.Status, AdminNotes: input.AdminNotes}

	if input.Status != nil {
		next, ok := domain.ParseTicketStatus(*input.Status)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		if !current.Status.CanTransitionTo(next) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("cannot move ticket from %s to %s", current.Status, next),
				map[string]any{"from": current.Status, "to": next},
			)
		}
		if next != current.Status {
			update.Status = &next
			if next == domain.TicketStatusResolved {
				adminID := admin.ID
				at := s.now().UTC()
				update.ResolvedBy = &adminID
				update.ResolvedAt = &at
			}
		}
	}

	if input.Priority != nil {
		priority, ok := domain.ParseTicketPriority(*input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		update.Priority = &priority
	}

	updated, err := s.tickets.UpdateStatus(ctx, number, update)
	if errors.Is(err, repository.ErrStaleStatus) {
		return nil, apperrors.NewConflict("ticket was changed by someone else; reload and retry", map[string]any{"ticketNumber": number})
	}
	if err != nil {
		return nil, mapTicketError(err)
	}

	if err := s.stats.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
	s.publishChanges(ctx, admin, current, updated)
	return updated, nil
}

func (s *TicketService) publishChanges(ctx context.Context, admin *domain.User, before, after *domain.Ticket) {
	actor := userActor(admin, admin.Username)
	if before.Status != after.Status {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:         events.EventTicketStatusChanged,
			TicketNumber: after.TicketNumber,
			Actor:        actor,
			Payload: events.TicketStatusChangedPayload{
				OldStatus:  before.Status,
				NewStatus:  after.Status,
				AdminNotes: after.AdminNotes,
			},
		})
	}
	if before.Priority != after.Priority {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:         events.EventTicketPriorityChanged,
			TicketNumber: after.TicketNumber,
			Actor:        actor,
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: before.Priority,
				NewPriority: after.Priority,
			},
		})
	}
}

// Stats returns the administrator overview, served from cache when possible.
func (s *TicketService) Stats(ctx context.Context) (*domain.TicketStats, error) {
	if cached, hit, err := s.stats.Get(ctx); err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	} else if hit {
		return cached, nil
	}

	stats, err := s.tickets.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if err := s.stats.Set(ctx, stats); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

func (q TicketListQuery) toFilter() (repository.TicketFilter, error) {
	filter := repository.TicketFilter{Limit: q.Limit, Offset: q.Offset}
	if q.Status != "" {
		status, ok := domain.ParseTicketStatus(q.Status)
		if !ok {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": q.Status})
		}
		filter.Statuses = []domain.TicketStatus{status}
	}
	if q.Priority != "" {
		priority, ok := domain.ParseTicketPriority(q.Priority)
		if !ok {
			return filter, apperrors.NewValidationError("invalid priority", map[string]any{"priority": q.Priority})
		}
		filter.Priorities = []domain.TicketPriority{priority}
	}
	if q.Category != "" {
		category := domain.Category(q.Category)
		if !category.Valid() {
			return filter, apperrors.NewValidationError("invalid category", map[string]any{"category": q.Category})
		}
		filter.Categories = []domain.Category{category}
	}
	return filter, nil
}

func mapTicketError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"response": msgTicketNotFound})
	}
	return err
}
