package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/events"
	"github.com/ventanilla/servicedesk/internal/identity"
	"github.com/ventanilla/servicedesk/internal/repository"
	"github.com/ventanilla/servicedesk/internal/sla"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

const (
	fallbackRequesterName = "Usuario Desconocido"
	fallbackTitle         = "Sin Cargo"
	fallbackUnit          = "Sin Gerencia"
)

// TicketService coordinates ticket workflows: creation with SLA stamping,
// lifecycle transitions, assignment, and the admin aggregates.
type TicketService struct {
	tickets    repository.TicketRepository
	calendar   *sla.Calendar
	authorizer *identity.Authorizer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Calendar   *sla.Calendar
	Authorizer *identity.Authorizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// TicketCreateInput describes the ticket creation payload. Requester fields
// are optional overrides; the authenticated profile wins when present.
type TicketCreateInput struct {
	RequestType    domain.RequestType
	Priority       domain.TicketPriority
	EntityType     domain.EntityType
	RequesterName  string
	RequesterTitle string
	RequesterUnit  string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	TaxID          string
	CompanyName    string
	Country        string
	City           string
	Description    string
	ResolutionDays int
	AssigneeName   string
	AssigneeTitle  string
	AssigneeUnit   string
	AssigneeEmail  string
}

// AssigneeInput carries responsible-person fields for assignment.
type AssigneeInput struct {
	Email string
	Name  string
	Title string
	Unit  string
}

// AdminMetrics aggregates management dashboard counters.
type AdminMetrics struct {
	Total   int64
	SLAMet  int64
	Overdue int64
	ByState []repository.GroupCount
	ByUnit  []repository.GroupCount
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		calendar:   deps.Calendar,
		authorizer: deps.Authorizer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        clock,
	}
}

// CreateTicket validates input, stamps the commitment deadline from the
// priority, and persists the ticket. An initial assignee triggers the
// assignment notification through the dispatcher.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Profile, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.Email == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		RequestType:    input.RequestType,
		Priority:       input.Priority,
		EntityType:     input.EntityType,
		RequesterName:  coalesce(actor.DisplayName, input.RequesterName, fallbackRequesterName),
		RequesterEmail: actor.Email,
		RequesterTitle: coalesce(actor.JobTitle, input.RequesterTitle, fallbackTitle),
		RequesterUnit:  coalesce(actor.Department, input.RequesterUnit, fallbackUnit),
		Description:    strings.TrimSpace(input.Description),
		ResolutionDays: input.ResolutionDays,
		Status:         domain.TicketStatusOpen,
		Deadline:       sla.DeadlineForPriority(s.calendar, now, input.Priority),
	}
	applySubjectFields(ticket, input)
	applyInitialAssignee(ticket, input)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketCreated,
		TicketID:   ticket.ID,
		ActorEmail: actor.Email,
		Payload: events.TicketCreatedPayload{
			RequestType: ticket.RequestType,
			Priority:    ticket.Priority,
			Deadline:    ticket.Deadline,
		},
	})
	if ticket.Assigned() {
		s.publishEvent(ctx, events.Event{
			Type:       events.EventTicketAssigned,
			TicketID:   ticket.ID,
			ActorEmail: actor.Email,
			Payload: events.TicketAssignedPayload{
				AssigneeEmail: *ticket.AssigneeEmail,
				RequestType:   ticket.RequestType,
			},
		})
	}
	return ticket, nil
}

// StartTicket moves an open ticket into attention, stamping the
// attention-start time. Allowed for the assigned responsible or an admin.
func (s *TicketService) StartTicket(ctx context.Context, actorEmail string, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.fetchForActor(ctx, actorEmail, ticketID)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusOpen:
	case domain.TicketStatusClosed, domain.TicketStatusAnnulled:
		return nil, apperrors.NewInvalidState("ticket is closed", stateDetails(ticket))
	default:
		return nil, apperrors.NewInvalidState("ticket is already in progress", stateDetails(ticket))
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusInProgress
	ticket.AttentionAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapUpdateErr(err, ticketID)
	}
	s.publishStatusChange(ctx, actorEmail, ticket, oldStatus)
	return ticket, nil
}

// CloseTicket closes an in-progress ticket, stamping the closure time and
// classifying the SLA outcome against the stored commitment deadline. The
// deadline is read, never recomputed; the comparison is inclusive, so closing
// exactly at the deadline counts as met.
func (s *TicketService) CloseTicket(ctx context.Context, actorEmail string, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.fetchForActor(ctx, actorEmail, ticketID)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusInProgress:
	case domain.TicketStatusClosed, domain.TicketStatusAnnulled:
		return nil, apperrors.NewInvalidState("ticket is closed", stateDetails(ticket))
	default:
		return nil, apperrors.NewInvalidState("ticket is not yet in progress", stateDetails(ticket))
	}

	now := s.now()
	met := !now.After(ticket.Deadline)
	outcome := domain.SLAOutcomeExpired
	if met {
		outcome = domain.SLAOutcomeMet
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.SLAMet = &met
	ticket.SLAOutcome = &outcome
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapUpdateErr(err, ticketID)
	}
	s.publishStatusChange(ctx, actorEmail, ticket, oldStatus)
	return ticket, nil
}

// AssignTicket sets the responsible person. Assignment is a privileged
// operation: only administrators may assign, and only while the ticket is in
// progress. The assignment notice is dispatched after the mutation commits
// and its failure never surfaces to the caller.
func (s *TicketService) AssignTicket(ctx context.Context, actorEmail string, ticketID int64, assignee AssigneeInput) (*domain.Ticket, error) {
	if actorEmail == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !s.authorizer.IsAdmin(actorEmail) {
		return nil, apperrors.NewForbidden("administrator role required for assignment", nil)
	}
	if blank(assignee.Email) {
		return nil, apperrors.NewValidationError("assignee email required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusInProgress:
	case domain.TicketStatusClosed, domain.TicketStatusAnnulled:
		return nil, apperrors.NewInvalidState("cannot assign a responsible to a closed ticket", stateDetails(ticket))
	default:
		return nil, apperrors.NewInvalidState("a responsible can only be assigned while the ticket is in progress", stateDetails(ticket))
	}

	email := strings.TrimSpace(assignee.Email)
	ticket.AssigneeEmail = &email
	setOptional(&ticket.AssigneeName, assignee.Name)
	setOptional(&ticket.AssigneeTitle, assignee.Title)
	setOptional(&ticket.AssigneeUnit, assignee.Unit)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapUpdateErr(err, ticketID)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketAssigned,
		TicketID:   ticket.ID,
		ActorEmail: actorEmail,
		Payload: events.TicketAssignedPayload{
			AssigneeEmail: email,
			RequestType:   ticket.RequestType,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListForUser returns tickets the given email requested or is assigned to,
// newest first.
func (s *TicketService) ListForUser(ctx context.Context, email string, limit, offset int) ([]domain.Ticket, error) {
	if email == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AnyEmail: &email,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Metrics returns management aggregates.
func (s *TicketService) Metrics(ctx context.Context) (*AdminMetrics, error) {
	total, err := s.tickets.Count(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	met := true
	slaMet, err := s.tickets.Count(ctx, repository.TicketFilter{SLAMet: &met})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	overdue, err := s.tickets.CountOverdue(ctx, s.now())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byState, err := s.tickets.GroupCountBy(ctx, "status")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byUnit, err := s.tickets.GroupCountBy(ctx, "requester_unit")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AdminMetrics{
		Total:   total,
		SLAMet:  slaMet,
		Overdue: overdue,
		ByState: byState,
		ByUnit:  byUnit,
	}, nil
}

// RecentClosed returns the latest closed tickets.
func (s *TicketService) RecentClosed(ctx context.Context, limit int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListRecentClosed(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// fetchForActor re-fetches the ticket and enforces the assignee-or-admin
// guard shared by start and close.
func (s *TicketService) fetchForActor(ctx context.Context, actorEmail string, ticketID int64) (*domain.Ticket, error) {
	if actorEmail == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	isAssignee := ticket.AssigneeEmail != nil && strings.EqualFold(*ticket.AssigneeEmail, actorEmail)
	if !isAssignee && !s.authorizer.IsAdmin(actorEmail) {
		return nil, apperrors.NewForbidden("only the assigned responsible or an administrator may act on this ticket", map[string]any{
			"ticket_id": ticketID,
		})
	}
	return ticket, nil
}

func (s *TicketService) mapUpdateErr(err error, ticketID int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.MapError(err)
}

func (s *TicketService) publishStatusChange(ctx context.Context, actorEmail string, ticket *domain.Ticket, oldStatus domain.TicketStatus) {
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketStatusChanged,
		TicketID:   ticket.ID,
		ActorEmail: actorEmail,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  ticket.Status,
			SLAOutcome: ticket.SLAOutcome,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stateDetails(ticket *domain.Ticket) map[string]any {
	return map[string]any{"ticket_id": ticket.ID, "status": ticket.Status}
}

func applySubjectFields(ticket *domain.Ticket, input TicketCreateInput) {
	switch input.EntityType {
	case domain.EntityNaturalPerson:
		setOptional(&ticket.SubjectName, input.ContactName)
		setOptional(&ticket.SubjectEmail, input.ContactEmail)
		setOptional(&ticket.SubjectPhone, input.ContactPhone)
	case domain.EntityLocalCompany:
		setOptional(&ticket.SubjectName, input.CompanyName)
		setOptional(&ticket.SubjectTaxID, input.TaxID)
		setOptional(&ticket.SubjectCity, input.City)
		country := input.Country
		if blank(country) {
			country = "Colombia"
		}
		setOptional(&ticket.SubjectCountry, country)
		setOptional(&ticket.SubjectPhone, input.ContactPhone)
	case domain.EntityForeignCompany:
		setOptional(&ticket.SubjectName, input.CompanyName)
		setOptional(&ticket.SubjectTaxID, input.TaxID)
		setOptional(&ticket.SubjectCountry, input.Country)
		setOptional(&ticket.SubjectCity, input.City)
		setOptional(&ticket.SubjectPhone, input.ContactPhone)
	}
}

func applyInitialAssignee(ticket *domain.Ticket, input TicketCreateInput) {
	if blank(input.AssigneeEmail) {
		return
	}
	setOptional(&ticket.AssigneeEmail, input.AssigneeEmail)
	setOptional(&ticket.AssigneeName, input.AssigneeName)
	setOptional(&ticket.AssigneeTitle, input.AssigneeTitle)
	setOptional(&ticket.AssigneeUnit, input.AssigneeUnit)
}

func setOptional(dst **string, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = &value
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
