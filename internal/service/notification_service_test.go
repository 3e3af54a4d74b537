package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/events"
)

func TestNotificationServiceSendsAssignmentNotice(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &fakeMailer{}
	svc := NewNotificationService(dispatcher, mailer, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:       "evt-1",
		Type:     events.EventTicketAssigned,
		TicketID: 42,
		Payload: events.TicketAssignedPayload{
			AssigneeEmail: "resp@example.gov.co",
			RequestType:   domain.RequestTypeIncident,
		},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{42}, mailer.assigned)
}

func TestNotificationServiceSwallowsDeliveryFailure(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &fakeMailer{assignErr: errors.New("smtp down")}
	svc := NewNotificationService(dispatcher, mailer, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: 7,
		Payload: events.TicketAssignedPayload{
			AssigneeEmail: "resp@example.gov.co",
			RequestType:   domain.RequestTypeInquiry,
		},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{7}, mailer.assigned)
}

func TestNotificationServiceIgnoresEmptyAssignee(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &fakeMailer{}
	svc := NewNotificationService(dispatcher, mailer, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: 8,
		Payload:  events.TicketAssignedPayload{},
	})
	require.NoError(t, err)
	require.Empty(t, mailer.assigned)
}
