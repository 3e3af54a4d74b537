package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/notification"
	"github.com/ventanilla/servicedesk/internal/observability"
	"github.com/ventanilla/servicedesk/internal/repository"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// ReminderRun aggregates the outcome of one reminder sweep. Every selected
// ticket lands in exactly one of Sent, Failed or Skipped.
type ReminderRun struct {
	Total          int      `json:"total"`
	Sent           int      `json:"sent"`
	Failed         int      `json:"failed"`
	Skipped        int      `json:"skipped"`
	FailureDetails []string `json:"failure_details"`
}

// ReminderService selects tickets nearing their commitment deadline and
// forwards them to the mailer. One failing send never prevents attempts on
// the remaining tickets.
type ReminderService struct {
	tickets repository.TicketRepository
	mailer  notification.Mailer
	dedupe  *redis.Client
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// ReminderDependencies bundles collaborators for the reminder service.
// Dedupe and Metrics may be nil.
type ReminderDependencies struct {
	TicketRepo repository.TicketRepository
	Mailer     notification.Mailer
	Dedupe     *redis.Client
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewReminderService constructs the service.
func NewReminderService(deps ReminderDependencies) *ReminderService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ReminderService{
		tickets: deps.TicketRepo,
		mailer:  deps.Mailer,
		dedupe:  deps.Dedupe,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		now:     clock,
	}
}

// FindExpiring returns non-terminal, assigned tickets whose commitment
// deadline falls between the start of today and the end of the day
// lookaheadDays ahead. Negative lookaheads are clamped to zero.
func (s *ReminderService) FindExpiring(ctx context.Context, lookaheadDays int) ([]domain.Ticket, error) {
	if lookaheadDays < 0 {
		lookaheadDays = 0
	}
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, lookaheadDays).Add(24*time.Hour - time.Nanosecond)

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		DeadlineFrom:  &from,
		DeadlineTo:    &to,
		StatusesNotIn: domain.TerminalStatuses,
		AssignedOnly:  true,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// CheckAndSend runs one reminder sweep: select expiring tickets, send one
// reminder each, and report the aggregate. Per-ticket send failures are
// recovered into failure records.
func (s *ReminderService) CheckAndSend(ctx context.Context, lookaheadDays int) (*ReminderRun, error) {
	tickets, err := s.FindExpiring(ctx, lookaheadDays)
	if err != nil {
		return nil, err
	}

	run := &ReminderRun{Total: len(tickets), FailureDetails: []string{}}
	for i := range tickets {
		ticket := &tickets[i]
		if !ticket.Assigned() {
			run.Skipped++
			continue
		}
		if s.alreadyReminded(ctx, ticket.ID) {
			run.Skipped++
			continue
		}
		if err := s.mailer.SendReminderNotice(ctx, *ticket.AssigneeEmail, ticket.ID, ticket.RequestType, ticket.Deadline); err != nil {
			run.Failed++
			run.FailureDetails = append(run.FailureDetails, fmt.Sprintf("ticket #%d: %v", ticket.ID, err))
			s.logger.Warn("reminder send failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		run.Sent++
	}

	s.metrics.RecordReminderRun(run.Sent, run.Failed)
	s.logger.Info("reminder sweep completed",
		zap.Int("total", run.Total),
		zap.Int("sent", run.Sent),
		zap.Int("failed", run.Failed),
		zap.Int("skipped", run.Skipped))
	return run, nil
}

// alreadyReminded marks the ticket as reminded for today and reports whether
// a reminder already went out. Without redis every sweep sends again, which
// matches the behavior of externally scheduled daily runs.
func (s *ReminderService) alreadyReminded(ctx context.Context, ticketID int64) bool {
	if s.dedupe == nil {
		return false
	}
	key := fmt.Sprintf("reminder:%d:%s", ticketID, s.now().Format("2006-01-02"))
	set, err := s.dedupe.SetNX(ctx, key, 1, 48*time.Hour).Result()
	if err != nil {
		s.logger.Debug("reminder dedupe unavailable", zap.Error(err))
		return false
	}
	return !set
}
