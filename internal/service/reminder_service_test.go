package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/domain"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

type fakeMailer struct {
	reminded  []int64
	failIDs   map[int64]bool
	assigned  []int64
	assignErr error
}

func (m *fakeMailer) SendAssignmentNotice(_ context.Context, _ string, ticketID int64, _ domain.RequestType) error {
	m.assigned = append(m.assigned, ticketID)
	return m.assignErr
}

func (m *fakeMailer) SendReminderNotice(_ context.Context, _ string, ticketID int64, _ domain.RequestType, _ time.Time) error {
	if m.failIDs[ticketID] {
		return apperrors.NewNotificationError(ticketID, errors.New("smtp timeout"))
	}
	m.reminded = append(m.reminded, ticketID)
	return nil
}

func newReminderFixture(repo *fakeTicketRepo, mailer *fakeMailer, now time.Time) *ReminderService {
	return NewReminderService(ReminderDependencies{
		TicketRepo: repo,
		Mailer:     mailer,
		Logger:     zap.NewNop(),
		Clock:      func() time.Time { return now },
	})
}

func deadlineTicket(assignee string, deadline time.Time, status domain.TicketStatus) domain.Ticket {
	ticket := domain.Ticket{
		RequestType:    domain.RequestTypeInquiry,
		RequesterEmail: "solicitante@example.gov.co",
		Status:         status,
		Deadline:       deadline,
	}
	if assignee != "" {
		ticket.AssigneeEmail = &assignee
	}
	return ticket
}

func TestFindExpiringWindow(t *testing.T) {
	repo := newFakeTicketRepo()
	now := time.Date(2024, time.January, 15, 14, 30, 0, 0, time.UTC)
	svc := newReminderFixture(repo, &fakeMailer{}, now)
	assignee := "resp@example.gov.co"

	// In window: deadline earlier today and tomorrow end of day.
	inToday := repo.add(deadlineTicket(assignee, time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC), domain.TicketStatusInProgress))
	inTomorrow := repo.add(deadlineTicket(assignee, time.Date(2024, time.January, 16, 23, 59, 0, 0, time.UTC), domain.TicketStatusOpen))

	// Out of window: yesterday and the day after tomorrow.
	repo.add(deadlineTicket(assignee, time.Date(2024, time.January, 14, 23, 59, 0, 0, time.UTC), domain.TicketStatusOpen))
	repo.add(deadlineTicket(assignee, time.Date(2024, time.January, 17, 0, 0, 0, 0, time.UTC), domain.TicketStatusOpen))

	// Excluded by status or missing assignee despite being in window.
	repo.add(deadlineTicket(assignee, now, domain.TicketStatusClosed))
	repo.add(deadlineTicket(assignee, now, domain.TicketStatusAnnulled))
	repo.add(deadlineTicket("", now, domain.TicketStatusOpen))

	tickets, err := svc.FindExpiring(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	ids := []int64{tickets[0].ID, tickets[1].ID}
	require.ElementsMatch(t, []int64{inToday.ID, inTomorrow.ID}, ids)
}

func TestFindExpiringClampsNegativeLookahead(t *testing.T) {
	repo := newFakeTicketRepo()
	now := time.Date(2024, time.January, 15, 14, 30, 0, 0, time.UTC)
	svc := newReminderFixture(repo, &fakeMailer{}, now)

	today := repo.add(deadlineTicket("resp@example.gov.co", time.Date(2024, time.January, 15, 18, 0, 0, 0, time.UTC), domain.TicketStatusOpen))
	repo.add(deadlineTicket("resp@example.gov.co", time.Date(2024, time.January, 16, 9, 0, 0, 0, time.UTC), domain.TicketStatusOpen))

	tickets, err := svc.FindExpiring(context.Background(), -5)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.Equal(t, today.ID, tickets[0].ID)
}

func TestCheckAndSendPartialFailure(t *testing.T) {
	repo := newFakeTicketRepo()
	now := time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)
	assignee := "resp@example.gov.co"

	first := repo.add(deadlineTicket(assignee, now.Add(2*time.Hour), domain.TicketStatusInProgress))
	second := repo.add(deadlineTicket(assignee, now.Add(4*time.Hour), domain.TicketStatusInProgress))
	third := repo.add(deadlineTicket(assignee, now.Add(6*time.Hour), domain.TicketStatusInProgress))

	mailer := &fakeMailer{failIDs: map[int64]bool{second.ID: true}}
	svc := newReminderFixture(repo, mailer, now)

	run, err := svc.CheckAndSend(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 3, run.Total)
	require.Equal(t, 2, run.Sent)
	require.Equal(t, 1, run.Failed)
	require.Equal(t, 0, run.Skipped)
	require.Len(t, run.FailureDetails, 1)
	require.Contains(t, run.FailureDetails[0], "ticket #2")
	require.ElementsMatch(t, []int64{first.ID, third.ID}, mailer.reminded)
}

func TestCheckAndSendEmptyWindow(t *testing.T) {
	repo := newFakeTicketRepo()
	now := time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)
	mailer := &fakeMailer{}
	svc := newReminderFixture(repo, mailer, now)

	run, err := svc.CheckAndSend(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, run.Total)
	require.Empty(t, run.FailureDetails)
	require.Empty(t, mailer.reminded)
}
