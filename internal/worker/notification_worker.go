package worker

import (
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the dispatcher.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		logger.Warn("notification worker disabled")
		return
	}
	notifications.RegisterHandlers()
	logger.Info("notification worker started")
}
