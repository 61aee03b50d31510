package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
)

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_number", event.TicketNumber),
			zap.Error(err))
	}
}

func userActor(user *domain.User, username string) events.Actor {
	if user == nil {
		return events.Actor{Username: username}
	}
	id := user.ID
	return events.Actor{Role: user.Role, UserID: &id, Username: user.Username}
}
