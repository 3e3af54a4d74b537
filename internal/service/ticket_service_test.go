package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/config"
	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/identity"
	"github.com/ventanilla/servicedesk/internal/repository"
	"github.com/ventanilla/servicedesk/internal/sla"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

const adminEmail = "admin@example.gov.co"

type fakeTicketRepo struct {
	tickets map[int64]*domain.Ticket
	nextID  int64
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[int64]*domain.Ticket{}}
}

func (f *fakeTicketRepo) add(ticket domain.Ticket) *domain.Ticket {
	f.nextID++
	ticket.ID = f.nextID
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	f.tickets[ticket.ID] = &ticket
	return &ticket
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.nextID++
	ticket.ID = f.nextID
	ticket.CreatedAt = time.Now()
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	stored, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := *stored
	return &ticket, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, stored := range f.tickets {
		if !matchesFilter(stored, filter) {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func matchesFilter(t *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.AnyEmail != nil {
		assigned := t.AssigneeEmail != nil && *t.AssigneeEmail == *filter.AnyEmail
		if t.RequesterEmail != *filter.AnyEmail && !assigned {
			return false
		}
	}
	for _, status := range filter.StatusesNotIn {
		if t.Status == status {
			return false
		}
	}
	if filter.DeadlineFrom != nil && t.Deadline.Before(*filter.DeadlineFrom) {
		return false
	}
	if filter.DeadlineTo != nil && t.Deadline.After(*filter.DeadlineTo) {
		return false
	}
	if filter.AssignedOnly && t.AssigneeEmail == nil {
		return false
	}
	return true
}

func (f *fakeTicketRepo) Count(ctx context.Context, filter repository.TicketFilter) (int64, error) {
	tickets, _ := f.ListWithFilter(ctx, filter)
	return int64(len(tickets)), nil
}

func (f *fakeTicketRepo) CountOverdue(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeTicketRepo) GroupCountBy(_ context.Context, _ string) ([]repository.GroupCount, error) {
	return nil, nil
}

func (f *fakeTicketRepo) ListRecentClosed(_ context.Context, _ int) ([]domain.Ticket, error) {
	return nil, nil
}

func (f *fakeTicketRepo) SearchRequesters(_ context.Context, _ string, _ int) ([]domain.Person, error) {
	return nil, nil
}

func newTestService(repo repository.TicketRepository, now time.Time) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Calendar:   sla.NewWeekendCalendar(),
		Authorizer: identity.NewAuthorizer(config.AuthConfig{AdminEmails: []string{adminEmail}}),
		Logger:     zap.NewNop(),
		Clock:      func() time.Time { return now },
	})
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		RequestType:    domain.RequestTypeInquiry,
		Priority:       domain.TicketPriorityMedium,
		EntityType:     domain.EntityNaturalPerson,
		ContactName:    "Ana Torres",
		ContactEmail:   "ana@example.com",
		ContactPhone:   "3001234567",
		Description:    "La plataforma rechaza el formulario de registro",
		ResolutionDays: 5,
	}
}

func testProfile() domain.Profile {
	return domain.Profile{
		Email:       "solicitante@example.gov.co",
		DisplayName: "Carlos Pérez",
		JobTitle:    "Analista",
		Department:  "Gerencia Comercial",
	}
}

func strPtr(s string) *string { return &s }

func TestCreateTicketStampsDeadline(t *testing.T) {
	repo := newFakeTicketRepo()
	// Monday.
	now := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	ticket, err := svc.CreateTicket(context.Background(), testProfile(), validInput())
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	// Medium priority, three business days from Monday.
	require.Equal(t, time.Date(2024, time.January, 18, 10, 0, 0, 0, time.UTC), ticket.Deadline)
	require.Equal(t, "Carlos Pérez", ticket.RequesterName)
	require.Equal(t, "solicitante@example.gov.co", ticket.RequesterEmail)
	require.Nil(t, ticket.SLAMet)
}

func TestCreateTicketRequiresIdentity(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())
	_, err := svc.CreateTicket(context.Background(), domain.Profile{}, validInput())
	require.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCreateTicketFallsBackToUnknownRequester(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())
	ticket, err := svc.CreateTicket(context.Background(), domain.Profile{Email: "x@example.com"}, validInput())
	require.NoError(t, err)
	require.Equal(t, "Usuario Desconocido", ticket.RequesterName)
	require.Equal(t, "Sin Cargo", ticket.RequesterTitle)
	require.Equal(t, "Sin Gerencia", ticket.RequesterUnit)
}

func TestCreateTicketValidation(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		mutate func(*TicketCreateInput)
	}{
		{"unknown request type", func(in *TicketCreateInput) { in.RequestType = "OTHER" }},
		{"unknown priority", func(in *TicketCreateInput) { in.Priority = "CRITICAL" }},
		{"short description", func(in *TicketCreateInput) { in.Description = "corta" }},
		{"zero resolution days", func(in *TicketCreateInput) { in.ResolutionDays = 0 }},
		{"resolution days over priority cap", func(in *TicketCreateInput) { in.ResolutionDays = 11 }},
		{"natural person without contact", func(in *TicketCreateInput) { in.ContactEmail = "" }},
		{"unknown entity type", func(in *TicketCreateInput) { in.EntityType = "OTHER" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.CreateTicket(ctx, testProfile(), input)
			require.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateTicketCompanyFields(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())
	input := validInput()
	input.EntityType = domain.EntityLocalCompany
	input.TaxID = "900123456-7"
	input.CompanyName = "Comercial Andina SAS"
	input.City = "Bogotá"

	ticket, err := svc.CreateTicket(context.Background(), testProfile(), input)
	require.NoError(t, err)
	require.Equal(t, "Comercial Andina SAS", *ticket.SubjectName)
	require.Equal(t, "900123456-7", *ticket.SubjectTaxID)
	// Local companies default to Colombia when no country is given.
	require.Equal(t, "Colombia", *ticket.SubjectCountry)
}

func TestStartTicket(t *testing.T) {
	repo := newFakeTicketRepo()
	now := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	assignee := "resp@example.gov.co"

	open := repo.add(domain.Ticket{
		Status:        domain.TicketStatusOpen,
		AssigneeEmail: strPtr(assignee),
		Deadline:      now.AddDate(0, 0, 3),
	})

	ticket, err := svc.StartTicket(context.Background(), assignee, open.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.AttentionAt)
	require.Equal(t, now, *ticket.AttentionAt)

	// Starting twice reports the in-progress state.
	_, err = svc.StartTicket(context.Background(), assignee, open.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
	require.EqualError(t, err, "ticket is already in progress")
}

func TestStartTicketForbiddenForStranger(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	open := repo.add(domain.Ticket{
		Status:        domain.TicketStatusOpen,
		AssigneeEmail: strPtr("resp@example.gov.co"),
	})

	_, err := svc.StartTicket(context.Background(), "otro@example.gov.co", open.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestStartTicketAdminMayAct(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	open := repo.add(domain.Ticket{
		Status:        domain.TicketStatusOpen,
		AssigneeEmail: strPtr("resp@example.gov.co"),
	})

	ticket, err := svc.StartTicket(context.Background(), adminEmail, open.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}

func TestStartTicketNotFound(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())
	_, err := svc.StartTicket(context.Background(), adminEmail, 404)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCloseTicketOutcome(t *testing.T) {
	deadline := time.Date(2024, time.January, 18, 10, 0, 0, 0, time.UTC)
	assignee := "resp@example.gov.co"

	for _, tc := range []struct {
		name    string
		closeAt time.Time
		wantMet bool
	}{
		{"before deadline", deadline.Add(-2 * time.Hour), true},
		{"exactly at deadline", deadline, true},
		{"after deadline", deadline.Add(time.Nanosecond), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeTicketRepo()
			svc := newTestService(repo, tc.closeAt)
			inProgress := repo.add(domain.Ticket{
				Status:        domain.TicketStatusInProgress,
				AssigneeEmail: strPtr(assignee),
				Deadline:      deadline,
			})

			ticket, err := svc.CloseTicket(context.Background(), assignee, inProgress.ID)
			require.NoError(t, err)
			require.Equal(t, domain.TicketStatusClosed, ticket.Status)
			require.NotNil(t, ticket.SLAMet)
			require.Equal(t, tc.wantMet, *ticket.SLAMet)
			if tc.wantMet {
				require.Equal(t, domain.SLAOutcomeMet, *ticket.SLAOutcome)
			} else {
				require.Equal(t, domain.SLAOutcomeExpired, *ticket.SLAOutcome)
			}
			require.Equal(t, tc.closeAt, *ticket.ClosedAt)
		})
	}
}

func TestCloseTicketGuards(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	assignee := "resp@example.gov.co"

	open := repo.add(domain.Ticket{Status: domain.TicketStatusOpen, AssigneeEmail: strPtr(assignee)})
	_, err := svc.CloseTicket(context.Background(), assignee, open.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
	require.EqualError(t, err, "ticket is not yet in progress")

	closed := repo.add(domain.Ticket{Status: domain.TicketStatusClosed, AssigneeEmail: strPtr(assignee)})
	_, err = svc.CloseTicket(context.Background(), assignee, closed.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
	require.EqualError(t, err, "ticket is closed")
}

func TestAssignTicket(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	inProgress := repo.add(domain.Ticket{Status: domain.TicketStatusInProgress})

	ticket, err := svc.AssignTicket(context.Background(), adminEmail, inProgress.ID, AssigneeInput{
		Email: "resp@example.gov.co",
		Name:  "Laura Díaz",
	})
	require.NoError(t, err)
	require.Equal(t, "resp@example.gov.co", *ticket.AssigneeEmail)
	require.Equal(t, "Laura Díaz", *ticket.AssigneeName)
}

func TestAssignTicketAdminOnly(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	inProgress := repo.add(domain.Ticket{Status: domain.TicketStatusInProgress})

	_, err := svc.AssignTicket(context.Background(), "cualquiera@example.gov.co", inProgress.ID, AssigneeInput{Email: "resp@example.gov.co"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestAssignTicketStateGuards(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	closed := repo.add(domain.Ticket{Status: domain.TicketStatusClosed})
	_, err := svc.AssignTicket(context.Background(), adminEmail, closed.ID, AssigneeInput{Email: "resp@example.gov.co"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
	require.EqualError(t, err, "cannot assign a responsible to a closed ticket")

	open := repo.add(domain.Ticket{Status: domain.TicketStatusOpen})
	_, err = svc.AssignTicket(context.Background(), adminEmail, open.ID, AssigneeInput{Email: "resp@example.gov.co"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
	require.EqualError(t, err, "a responsible can only be assigned while the ticket is in progress")
}

func TestAssignTicketRequiresEmail(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	inProgress := repo.add(domain.Ticket{Status: domain.TicketStatusInProgress})

	_, err := svc.AssignTicket(context.Background(), adminEmail, inProgress.ID, AssigneeInput{Email: "  "})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestListForUserMatchesRequesterOrAssignee(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())
	email := "carlos@example.gov.co"

	repo.add(domain.Ticket{RequesterEmail: email, Status: domain.TicketStatusOpen})
	repo.add(domain.Ticket{RequesterEmail: "otra@example.gov.co", AssigneeEmail: strPtr(email), Status: domain.TicketStatusOpen})
	repo.add(domain.Ticket{RequesterEmail: "otra@example.gov.co", Status: domain.TicketStatusOpen})

	tickets, err := svc.ListForUser(context.Background(), email, 10, 0)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
}
