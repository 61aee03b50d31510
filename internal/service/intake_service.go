package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/classifier"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const (
	msgMessageRequired = "தகவல் தேவை. தயவுசெய்து உங்கள் செய்தியை அனுப்பவும்."
	msgTicketCreated   = "✅ டிக்கெட் உருவாக்கப்பட்டது!\n📋 டிக்கெட் எண்: %s\n📂 வகை: %s\n⚡ முன்னுரிமை: %s"
	msgPersistFailed   = "⚠️ டிக்கெட் உருவாக்குவதில் சிக்கல் ஏற்பட்டது. மீண்டும் முயற்சிக்கவும்."
	msgDuplicate       = "ℹ️ இதே பிரச்சனைக்கு ஏற்கனவே ஒரு டிக்கெட் திறந்த நிலையில் உள்ளது.\n📋 டிக்கெட் எண்: %s"

	// MsgServerError is the citizen-facing apology for unexpected intake failures.
	MsgServerError = "மன்னிக்கவும், சர்வர் பிழை. தயவுசெய்து மீண்டும் முயற்சிக்கவும்."

	errTicketCreationFailed = "Ticket creation failed"
	ticketNumberAttempts    = 3
)

// Intake outcomes reported to metrics.
const (
	OutcomeCreated       = "created"
	OutcomeNoTicket      = "no_ticket"
	OutcomeDuplicate     = "duplicate"
	OutcomePersistFailed = "persist_failed"
)

// IntakeRequest is one citizen message. Submitter is set when the caller
// presented a valid token.
type IntakeRequest struct {
	Message   string
	Username  string
	Submitter *domain.User
}

// IntakeResult is what the chat endpoint answers with.
type IntakeResult struct {
	TicketCreated bool
	Ticket        *domain.Ticket
	DuplicateOf   string
	Response      string
	Analysis      classifier.Judgement
	Error         string
	Outcome       string
}

// IntakeDependencies bundles collaborators for IntakeService.
type IntakeDependencies struct {
	Classifier   classifier.Classifier
	TicketRepo   repository.TicketRepository
	StatsCache   repository.StatsCache
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Config       config.IntakeConfig
	TicketNumber func() string
	Now          func() time.Time
}

// IntakeService turns citizen messages into tickets.
type IntakeService struct {
	classifier   classifier.Classifier
	tickets      repository.TicketRepository
	stats        repository.StatsCache
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	cfg          config.IntakeConfig
	ticketNumber func() string
	now          func() time.Time
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	s := &IntakeService{
		classifier:   deps.Classifier,
		tickets:      deps.TicketRepo,
		stats:        deps.StatsCache,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		cfg:          deps.Config,
		ticketNumber: deps.TicketNumber,
		now:          deps.Now,
	}
	if s.ticketNumber == nil {
		s.ticketNumber = GenerateTicketNumber
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.stats == nil {
		s.stats = repository.NewRedisStatsCache(nil, 0)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if strings.TrimSpace(s.cfg.DefaultUsername) == "" {
		s.cfg.DefaultUsername = "Anonymous User"
	}
	return s
}

// Submit classifies the message and opens a ticket when the classifier asks for one.
// Only an empty message is reported as an error; persistence problems are folded
// into the result.
func (s *IntakeService) Submit(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", map[string]any{"response": msgMessageRequired})
	}

	username := s.resolveUsername(req)
	judgement := s.classifier.Analyze(ctx, message, username)
	s.metrics.RecordClassification(string(judgement.Failure))

	result := &IntakeResult{
		Analysis: judgement,
		Response: judgement.Response,
		Error:    judgement.Error,
	}
	if !judgement.CreateTicket || !judgement.IsValidComplaint {
		return s.finish(result, OutcomeNoTicket), nil
	}

	category := domain.NormalizeCategory(judgement.Category)
	submitter := submitterFor(req.Submitter, username)

	if existing := s.findDuplicate(ctx, req.Submitter, username, submitter, category); existing != nil {
		result.DuplicateOf = existing.TicketNumber
		result.Response = judgement.Response + "\n\n" + fmt.Sprintf(msgDuplicate, existing.TicketNumber)
		return s.finish(result, OutcomeDuplicate), nil
	}

	ticket := &domain.Ticket{
		Username:        username,
		UserID:          submitter.UserID,
		OriginalMessage: message,
		Translation:     judgement.Translation,
		Category:        category,
		Priority:        domain.DeterminePriority(category),
		Status:          domain.TicketStatusOpen,
		Confidence:      domain.ClampConfidence(judgement.Confidence),
		Reason:          judgement.Reason,
		AIResponse:      judgement.Response,
	}
	if err := s.persist(ctx, ticket); err != nil {
		s.logger.Error("ticket creation failed",
			zap.String("category", string(category)),
			zap.String("username", username),
			zap.Error(err))
		result.Response = judgement.Response + "\n\n" + msgPersistFailed
		result.Error = errTicketCreationFailed
		return s.finish(result, OutcomePersistFailed), nil
	}

	s.logger.Info("ticket created",
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("category", string(ticket.Category)),
		zap.String("priority", string(ticket.Priority)))
	s.metrics.RecordTicketCreated(string(ticket.Category), string(ticket.Priority))
	if err := s.stats.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticket.TicketNumber,
		Actor:        userActor(req.Submitter, username),
		Payload: events.TicketCreatedPayload{
			Category:   ticket.Category,
			Priority:   ticket.Priority,
			Confidence: ticket.Confidence,
		},
	})

	result.TicketCreated = true
	result.Ticket = ticket
	result.Response = judgement.Response + "\n\n" + fmt.Sprintf(msgTicketCreated,
		ticket.TicketNumber, ticket.Category, strings.ToUpper(string(ticket.Priority)))
	return s.finish(result, OutcomeCreated), nil
}

func (s *IntakeService) finish(result *IntakeResult, outcome string) *IntakeResult {
	result.Outcome = outcome
	s.metrics.RecordIntakeOutcome(outcome)
	return result
}

func (s *IntakeService) resolveUsername(req IntakeRequest) string {
	if name := strings.TrimSpace(req.Username); name != "" {
		return name
	}
	if req.Submitter != nil && req.Submitter.Username != "" {
		return req.Submitter.Username
	}
	return s.cfg.DefaultUsername
}

// findDuplicate returns an open ticket the same submitter filed in the same
// category inside the window. Lookup failures are logged and ignored.
func (s *IntakeService) findDuplicate(ctx context.Context, user *domain.User, username string, submitter repository.Submitter, category domain.Category) *domain.Ticket {
	if !s.cfg.DedupEnabled {
		return nil
	}
	if user == nil && username == s.cfg.DefaultUsername {
		return nil
	}
	since := s.now().Add(-s.cfg.DedupWindow())
	existing, err := s.tickets.FindRecentOpen(ctx, submitter, category, since)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("duplicate lookup failed", zap.Error(err))
		}
		return nil
	}
	return existing
}

func (s *IntakeService) persist(ctx context.Context, ticket *domain.Ticket) error {
	var err error
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		ticket.TicketNumber = s.ticketNumber()
		if err = ticket.Validate(); err != nil {
			return err
		}
		err = s.tickets.Create(ctx, ticket)
		if !errors.Is(err, repository.ErrDuplicateTicketNumber) {
			return err
		}
		s.logger.Warn("ticket number collision", zap.String("ticket_number", ticket.TicketNumber))
	}
	return err
}

func submitterFor(user *domain.User, username string) repository.Submitter {
	if user == nil {
		return repository.Submitter{Username: username}
	}
	id := user.ID
	return repository.Submitter{Username: username, UserID: &id}
}
