package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/events"
	"github.com/ventanilla/servicedesk/internal/notification"
)

// NotificationService reacts to domain events with email notifications.
// Delivery failures are logged and swallowed so they never fail the state
// mutation that triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notification.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notification.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeEmail == "" {
		return nil
	}
	if err := n.mailer.SendAssignmentNotice(ctx, payload.AssigneeEmail, event.TicketID, payload.RequestType); err != nil {
		n.logger.Warn("assignment notice failed",
			zap.Int64("ticket_id", event.TicketID),
			zap.String("assignee", payload.AssigneeEmail),
			zap.Error(err))
	}
	return nil
}
