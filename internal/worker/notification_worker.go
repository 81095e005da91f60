// Package worker wires event subscribers into the dispatcher at startup.
package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/service"
)

// NotificationWorker connects the notification service to lifecycle events.
type NotificationWorker struct {
	notifications *service.NotificationService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(notifications *service.NotificationService, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Start registers all event subscriptions. Call once during wiring.
func (w *NotificationWorker) Start() {
	w.notifications.RegisterHandlers(w.dispatcher)
	w.logger.Info("notification worker subscribed to lifecycle events")
}
