//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/persistence"
)

type PostgresRepositorySuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	tickets   TicketRepository
	users     UserRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("complaints"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	pool, err := pgxpool.New(ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool

	s.Require().NoError(persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	s.tickets = NewTicketRepository(pool)
	s.users = NewUserRepository(pool)
}

func (s *PostgresRepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if err := testcontainers.TerminateContainer(s.container); err != nil {
		s.T().Logf("terminate postgres container: %v", err)
	}
}

func (s *PostgresRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE tickets, users`)
	s.Require().NoError(err)
}

func (s *PostgresRepositorySuite) TestTicketRoundTrip() {
	ctx := context.Background()
	ticket := newTicket("MCB-PG-1", "kavya", domain.CategoryWaterSupply)
	s.Require().NoError(s.tickets.Create(ctx, ticket))
	s.NotEmpty(ticket.ID)

	got, err := s.tickets.GetByNumber(ctx, "MCB-PG-1")
	s.Require().NoError(err)
	s.Equal(ticket.OriginalMessage, got.OriginalMessage)
	s.Equal(domain.CategoryWaterSupply, got.Category)
	s.Equal(domain.TicketPriorityHigh, got.Priority)
	s.Equal(domain.TicketStatusOpen, got.Status)
	s.Nil(got.ResolvedAt)

	err = s.tickets.Create(ctx, newTicket("MCB-PG-1", "other", domain.CategoryGeneral))
	s.ErrorIs(err, ErrDuplicateTicketNumber)

	_, err = s.tickets.GetByNumber(ctx, "MCB-PG-404")
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresRepositorySuite) TestUpdateStatusAndAggregate() {
	ctx := context.Background()
	s.Require().NoError(s.tickets.Create(ctx, newTicket("MCB-PG-2", "ravi", domain.CategoryStreetLight)))
	s.Require().NoError(s.tickets.Create(ctx, newTicket("MCB-PG-3", "ravi", domain.CategoryStreetLight)))

	open := domain.TicketStatusOpen
	resolved := domain.TicketStatusResolved
	by := "admin-1"
	at := time.Now().UTC().Truncate(time.Millisecond)
	updated, err := s.tickets.UpdateStatus(ctx, "MCB-PG-2", StatusUpdate{
		Status: &resolved, ResolvedBy: &by, ResolvedAt: &at, ExpectedStatus: &open,
	})
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusResolved, updated.Status)
	s.Require().NotNil(updated.ResolvedAt)
	s.WithinDuration(at, *updated.ResolvedAt, time.Millisecond)

	_, err = s.tickets.UpdateStatus(ctx, "MCB-PG-2", StatusUpdate{Status: &resolved, ExpectedStatus: &open})
	s.ErrorIs(err, ErrStaleStatus)

	listed, err := s.tickets.ListBySubmitter(ctx, Submitter{Username: "ravi"}, TicketFilter{Statuses: []domain.TicketStatus{open}})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("MCB-PG-3", listed[0].TicketNumber)

	recent, err := s.tickets.FindRecentOpen(ctx, Submitter{Username: "ravi"}, domain.CategoryStreetLight, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal("MCB-PG-3", recent.TicketNumber)

	stats, err := s.tickets.Aggregate(ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalTickets)
	s.Equal(int64(1), stats.OpenTickets)
	s.Equal(int64(1), stats.ResolvedTickets)
	s.Equal(int64(2), stats.ByCategory[domain.CategoryStreetLight])
}

func (s *PostgresRepositorySuite) TestUsers() {
	ctx := context.Background()
	user := &domain.User{Username: "selvi", Email: "selvi@example.com", AadharNo: "123412341234", PasswordHash: "x", Role: domain.RoleUser}
	s.Require().NoError(s.users.Create(ctx, user))

	byEmail, err := s.users.GetByEmail(ctx, "selvi@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)

	byID, err := s.users.GetByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(domain.RoleUser, byID.Role)

	dup := &domain.User{Username: "x", Email: "selvi@example.com", AadharNo: "999999999999", PasswordHash: "x", Role: domain.RoleUser}
	s.ErrorIs(s.users.Create(ctx, dup), ErrDuplicateUser)

	n, err := s.users.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func TestRedisStatsCache(t *testing.T) {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisStatsCache(client, time.Minute)

	_, hit, err := cache.Get(ctx)
	require.NoError(t, err)
	require.False(t, hit)

	stats := newTicketStats()
	stats.add(domain.TicketStatusOpen, domain.CategoryGeneral, domain.TicketPriorityLow, 3)
	stats.TotalUsers = 7
	require.NoError(t, cache.Set(ctx, stats.TicketStats))

	cached, hit, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, stats.TicketStats, cached)

	require.NoError(t, cache.Invalidate(ctx))
	_, hit, err = cache.Get(ctx)
	require.NoError(t, err)
	require.False(t, hit)
}
