package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ventanilla/servicedesk/internal/domain"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// TicketFilter captures query parameters. Nil pointers mean "no constraint".
type TicketFilter struct {
	RequesterEmail *string
	AssigneeEmail  *string
	AnyEmail       *string
	Statuses       []domain.TicketStatus
	StatusesNotIn  []domain.TicketStatus
	DeadlineFrom   *time.Time
	DeadlineTo     *time.Time
	ClosedOnly     bool
	AssignedOnly   bool
	SLAMet         *bool
	Limit          int
	Offset         int
}

// GroupCount is one bucket of a group-by aggregation.
type GroupCount struct {
	Value string
	Count int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	GroupCountBy(ctx context.Context, field string) ([]GroupCount, error)
	ListRecentClosed(ctx context.Context, limit int) ([]domain.Ticket, error)
	SearchRequesters(ctx context.Context, query string, limit int) ([]domain.Person, error)
}

// groupableColumns whitelists group-by targets.
var groupableColumns = map[string]string{
	"status":         "status",
	"requester_unit": "requester_unit",
	"priority":       "priority",
	"request_type":   "request_type",
}

const ticketColumns = `id, request_type, priority, entity_type,
        requester_name, requester_email, requester_title, requester_unit,
        subject_name, subject_email, subject_phone, subject_tax_id, subject_country, subject_city,
        description, resolution_days,
        assignee_name, assignee_email, assignee_title, assignee_unit,
        status, created_at, attention_at, closed_at, deadline, sla_met, sla_outcome`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) ready() error {
	if r.pool == nil {
		return apperrors.NewDependencyUnavailable("postgres", nil)
	}
	return nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.ready(); err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (request_type, priority, entity_type,
            requester_name, requester_email, requester_title, requester_unit,
            subject_name, subject_email, subject_phone, subject_tax_id, subject_country, subject_city,
            description, resolution_days,
            assignee_name, assignee_email, assignee_title, assignee_unit,
            status, deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.RequestType,
		ticket.Priority,
		ticket.EntityType,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.RequesterTitle,
		ticket.RequesterUnit,
		ticket.SubjectName,
		ticket.SubjectEmail,
		ticket.SubjectPhone,
		ticket.SubjectTaxID,
		ticket.SubjectCountry,
		ticket.SubjectCity,
		ticket.Description,
		ticket.ResolutionDays,
		ticket.AssigneeName,
		ticket.AssigneeEmail,
		ticket.AssigneeTitle,
		ticket.AssigneeUnit,
		ticket.Status,
		ticket.Deadline,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.ready(); err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET
            assignee_name=$1, assignee_email=$2, assignee_title=$3, assignee_unit=$4,
            status=$5, attention_at=$6, closed_at=$7, sla_met=$8, sla_outcome=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.AssigneeName,
		ticket.AssigneeEmail,
		ticket.AssigneeTitle,
		ticket.AssigneeUnit,
		ticket.Status,
		ticket.AttentionAt,
		ticket.ClosedAt,
		ticket.SLAMet,
		ticket.SLAOutcome,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	query, args := buildTicketQuery(fmt.Sprintf("SELECT %s FROM tickets", ticketColumns), filter, true)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	query, args := buildTicketQuery("SELECT COUNT(*) FROM tickets", filter, false)
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountOverdue counts closed-expired tickets plus open tickets already past
// their deadline.
func (r *ticketRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE sla_outcome = $1
           OR (status <> $2 AND deadline < $3)`
	var count int64
	if err := r.pool.QueryRow(ctx, query, domain.SLAOutcomeExpired, domain.TicketStatusClosed, now).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) GroupCountBy(ctx context.Context, field string) ([]GroupCount, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	column, ok := groupableColumns[field]
	if !ok {
		return nil, apperrors.NewValidationError("unsupported group-by field", map[string]any{"field": field})
	}
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM tickets GROUP BY %s ORDER BY COUNT(*) DESC`, column, column)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var bucket GroupCount
		if err := rows.Scan(&bucket.Value, &bucket.Count); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListRecentClosed(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status=$1 ORDER BY closed_at DESC LIMIT %d`, ticketColumns, limit)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// SearchRequesters resolves a partial name against prior requesters, one row
// per distinct email.
func (r *ticketRepository) SearchRequesters(ctx context.Context, query string, limit int) ([]domain.Person, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	const sql = `
        SELECT DISTINCT ON (requester_email)
               requester_name, requester_email, requester_title, requester_unit
        FROM tickets
        WHERE LOWER(requester_name) LIKE $1
        ORDER BY requester_email
        LIMIT $2`
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.pool.Query(ctx, sql, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []domain.Person
	for rows.Next() {
		var person domain.Person
		if err := rows.Scan(&person.Name, &person.Email, &person.JobTitle, &person.Department); err != nil {
			return nil, err
		}
		people = append(people, person)
	}
	return people, rows.Err()
}

// buildTicketQuery renders the WHERE clause for a filter. Kept free of pool
// access so the clause construction is unit-testable.
func buildTicketQuery(base string, filter TicketFilter, ordered bool) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterEmail != nil {
		args = append(args, *filter.RequesterEmail)
		clauses = append(clauses, fmt.Sprintf("requester_email=$%d", len(args)))
	}
	if filter.AssigneeEmail != nil {
		args = append(args, *filter.AssigneeEmail)
		clauses = append(clauses, fmt.Sprintf("assignee_email=$%d", len(args)))
	}
	if filter.AnyEmail != nil {
		args = append(args, *filter.AnyEmail)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(requester_email=%s OR assignee_email=%s)", placeholder, placeholder))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.StatusesNotIn) > 0 {
		placeholders := make([]string, len(filter.StatusesNotIn))
		for i, status := range filter.StatusesNotIn {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DeadlineFrom != nil {
		args = append(args, *filter.DeadlineFrom)
		clauses = append(clauses, fmt.Sprintf("deadline >= $%d", len(args)))
	}
	if filter.DeadlineTo != nil {
		args = append(args, *filter.DeadlineTo)
		clauses = append(clauses, fmt.Sprintf("deadline <= $%d", len(args)))
	}
	if filter.ClosedOnly {
		clauses = append(clauses, "closed_at IS NOT NULL")
	}
	if filter.AssignedOnly {
		clauses = append(clauses, "assignee_email IS NOT NULL")
	}
	if filter.SLAMet != nil {
		args = append(args, *filter.SLAMet)
		clauses = append(clauses, fmt.Sprintf("sla_met=$%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s", base, strings.Join(clauses, " AND "))
	if !ordered {
		return query, args
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = fmt.Sprintf("%s ORDER BY created_at DESC LIMIT %d OFFSET %d", query, limit, offset)
	return query, args
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.RequestType,
		&ticket.Priority,
		&ticket.EntityType,
		&ticket.RequesterName,
		&ticket.RequesterEmail,
		&ticket.RequesterTitle,
		&ticket.RequesterUnit,
		&ticket.SubjectName,
		&ticket.SubjectEmail,
		&ticket.SubjectPhone,
		&ticket.SubjectTaxID,
		&ticket.SubjectCountry,
		&ticket.SubjectCity,
		&ticket.Description,
		&ticket.ResolutionDays,
		&ticket.AssigneeName,
		&ticket.AssigneeEmail,
		&ticket.AssigneeTitle,
		&ticket.AssigneeUnit,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.AttentionAt,
		&ticket.ClosedAt,
		&ticket.Deadline,
		&ticket.SLAMet,
		&ticket.SLAOutcome,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
