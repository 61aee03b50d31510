package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/civic-desk/complaint-service/internal/classifier"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/repository"
)

type stubClassifier struct {
	mu        sync.Mutex
	judgement classifier.Judgement
	calls     int
}

func (s *stubClassifier) Analyze(_ context.Context, message, username string) classifier.Judgement {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	j := s.judgement
	j.OriginalMessage = message
	j.Username = username
	return j
}

func (s *stubClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// flakyTicketRepository fails Create and FindRecentOpen on demand.
type flakyTicketRepository struct {
	*repository.InMemoryTicketRepository
	createErr error
	findErr   error
}

func (r *flakyTicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.InMemoryTicketRepository.Create(ctx, t)
}

func (r *flakyTicketRepository) FindRecentOpen(ctx context.Context, s repository.Submitter, c domain.Category, since time.Time) (*domain.Ticket, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.InMemoryTicketRepository.FindRecentOpen(ctx, s, c, since)
}

type countingStatsCache struct {
	mu          sync.Mutex
	stored      *domain.TicketStats
	invalidated int
	failReads   bool
}

func (c *countingStatsCache) Get(context.Context) (*domain.TicketStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failReads {
		return nil, false, errors.New("cache down")
	}
	if c.stored == nil {
		return nil, false, nil
	}
	return c.stored, true, nil
}

func (c *countingStatsCache) Set(_ context.Context, stats *domain.TicketStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = stats
	return nil
}

func (c *countingStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = nil
	c.invalidated++
	return nil
}
