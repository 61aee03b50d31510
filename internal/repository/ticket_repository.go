package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-desk/complaint-service/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Submitter identifies who filed a ticket. UserID wins over Username when set.
type Submitter struct {
	Username string
	UserID   *string
}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Categories []domain.Category
	Limit      int
	Offset     int
}

// StatusUpdate is a partial administrative update. Nil fields are left untouched.
type StatusUpdate struct {
	Status         *domain.TicketStatus
	AdminNotes     *string
	Priority       *domain.TicketPriority
	ResolvedBy     *string
	ResolvedAt     *time.Time
	ExpectedStatus *domain.TicketStatus
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListBySubmitter(ctx context.Context, submitter Submitter, filter TicketFilter) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, number string, update StatusUpdate) (*domain.Ticket, error)
	Aggregate(ctx context.Context) (*domain.TicketStats, error)
	FindRecentOpen(ctx context.Context, submitter Submitter, category domain.Category, since time.Time) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, username, user_id, original_message, translation, category,
        priority, status, confidence, reason, ai_response, admin_notes, resolved_by, resolved_at,
        created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, username, user_id, original_message, translation, category,
            priority, status, confidence, reason, ai_response)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Username,
		ticket.UserID,
		ticket.OriginalMessage,
		ticket.Translation,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.Confidence,
		ticket.Reason,
		ticket.AIResponse,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTicketNumber
	}
	return err
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, number))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListBySubmitter(ctx context.Context, submitter Submitter, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := submitterClause(submitter, nil)
	return r.list(ctx, filter, clauses, args)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	return r.list(ctx, filter, nil, nil)
}

func (r *ticketRepository) FindRecentOpen(ctx context.Context, submitter Submitter, category domain.Category, since time.Time) (*domain.Ticket, error) {
	clauses, args := submitterClause(submitter, nil)
	args = append(args, category)
	clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	args = append(args, since)
	clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	args = append(args, domain.TicketStatusOpen, domain.TicketStatusInProgress)
	clauses = append(clauses, fmt.Sprintf("status IN ($%d,$%d)", len(args)-1, len(args)))

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT 1`,
		ticketColumns, strings.Join(clauses, " AND "))
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, number string, update StatusUpdate) (*domain.Ticket, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if update.AdminNotes != nil {
		args = append(args, *update.AdminNotes)
		sets = append(sets, fmt.Sprintf("admin_notes=$%d", len(args)))
	}
	if update.Priority != nil {
		args = append(args, *update.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if update.ResolvedBy != nil {
		args = append(args, *update.ResolvedBy)
		sets = append(sets, fmt.Sprintf("resolved_by=$%d", len(args)))
	}
	if update.ResolvedAt != nil {
		args = append(args, *update.ResolvedAt)
		sets = append(sets, fmt.Sprintf("resolved_at=$%d", len(args)))
	}

	args = append(args, number)
	where := fmt.Sprintf("ticket_number=$%d", len(args))
	if update.ExpectedStatus != nil {
		args = append(args, *update.ExpectedStatus)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), where, ticketColumns)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || update.ExpectedStatus == nil {
		return nil, mapNoRows(err)
	}
	if _, getErr := r.GetByNumber(ctx, number); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleStatus
}

func (r *ticketRepository) Aggregate(ctx context.Context) (*domain.TicketStats, error) {
	const query = `SELECT status, category, priority, COUNT(*) FROM tickets GROUP BY status, category, priority`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := newTicketStats()
	for rows.Next() {
		var (
			status   domain.TicketStatus
			category domain.Category
			priority domain.TicketPriority
			count    int64
		)
		if err := rows.Scan(&status, &category, &priority, &count); err != nil {
			return nil, err
		}
		stats.add(status, category, priority, count)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats.TicketStats, nil
}

func (r *ticketRepository) list(ctx context.Context, filter TicketFilter, clauses []string, args []any) ([]domain.Ticket, error) {
	clauses = append([]string{"1=1"}, clauses...)

	if len(filter.Statuses) > 0 {
		clauses = append(clauses, inClause("status", &args, toAny(filter.Statuses)))
	}
	if len(filter.Priorities) > 0 {
		clauses = append(clauses, inClause("priority", &args, toAny(filter.Priorities)))
	}
	if len(filter.Categories) > 0 {
		clauses = append(clauses, inClause("category", &args, toAny(filter.Categories)))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func submitterClause(submitter Submitter, args []any) ([]string, []any) {
	if submitter.UserID != nil {
		args = append(args, *submitter.UserID)
		return []string{fmt.Sprintf("user_id=$%d", len(args))}, args
	}
	args = append(args, submitter.Username)
	return []string{fmt.Sprintf("username=$%d", len(args))}, args
}

func inClause(column string, args *[]any, values []any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		*args = append(*args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(*args))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Username,
		&ticket.UserID,
		&ticket.OriginalMessage,
		&ticket.Translation,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Confidence,
		&ticket.Reason,
		&ticket.AIResponse,
		&ticket.AdminNotes,
		&ticket.ResolvedBy,
		&ticket.ResolvedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

type statsBuilder struct {
	*domain.TicketStats
}

func newTicketStats() statsBuilder {
	return statsBuilder{&domain.TicketStats{
		ByStatus:   map[domain.TicketStatus]int64{},
		ByCategory: map[domain.Category]int64{},
		ByPriority: map[domain.TicketPriority]int64{},
	}}
}

func (s statsBuilder) add(status domain.TicketStatus, category domain.Category, priority domain.TicketPriority, count int64) {
	s.TotalTickets += count
	s.ByStatus[status] += count
	s.ByCategory[category] += count
	s.ByPriority[priority] += count
	switch status {
	case domain.TicketStatusOpen:
		s.OpenTickets += count
	case domain.TicketStatusResolved:
		s.ResolvedTickets += count
	}
	if priority == domain.TicketPriorityUrgent {
		s.UrgentTickets += count
	}
}
