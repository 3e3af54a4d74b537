package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ventanilla/servicedesk/internal/domain"
)

func TestBuildTicketQueryNoFilter(t *testing.T) {
	query, args := buildTicketQuery("SELECT COUNT(*) FROM tickets", TicketFilter{}, false)
	require.Equal(t, "SELECT COUNT(*) FROM tickets WHERE 1=1", query)
	require.Empty(t, args)
}

func TestBuildTicketQueryAnyEmail(t *testing.T) {
	email := "carlos@example.gov.co"
	query, args := buildTicketQuery("SELECT * FROM tickets", TicketFilter{AnyEmail: &email}, false)
	require.Contains(t, query, "(requester_email=$1 OR assignee_email=$1)")
	require.Equal(t, []any{email}, args)
}

func TestBuildTicketQueryStatusesNotIn(t *testing.T) {
	query, args := buildTicketQuery("SELECT * FROM tickets", TicketFilter{
		StatusesNotIn: domain.TerminalStatuses,
	}, false)
	require.Contains(t, query, "status NOT IN ($1,$2)")
	require.Len(t, args, len(domain.TerminalStatuses))
}

func TestBuildTicketQueryDeadlineWindow(t *testing.T) {
	from := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2).Add(-time.Nanosecond)
	query, args := buildTicketQuery("SELECT * FROM tickets", TicketFilter{
		DeadlineFrom: &from,
		DeadlineTo:   &to,
		AssignedOnly: true,
	}, false)
	require.Contains(t, query, "deadline >= $1")
	require.Contains(t, query, "deadline <= $2")
	require.Contains(t, query, "assignee_email IS NOT NULL")
	require.Equal(t, []any{from, to}, args)
}

func TestBuildTicketQueryOrderingAndPaging(t *testing.T) {
	query, _ := buildTicketQuery("SELECT * FROM tickets", TicketFilter{Limit: 25, Offset: 50}, true)
	require.Contains(t, query, "ORDER BY created_at DESC LIMIT 25 OFFSET 50")

	query, _ = buildTicketQuery("SELECT * FROM tickets", TicketFilter{Offset: -3}, true)
	require.Contains(t, query, "LIMIT 100 OFFSET 0")
}

func TestBuildTicketQueryArgNumbering(t *testing.T) {
	requester := "a@example.gov.co"
	met := true
	query, args := buildTicketQuery("SELECT * FROM tickets", TicketFilter{
		RequesterEmail: &requester,
		Statuses:       []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
		SLAMet:         &met,
	}, false)
	require.Contains(t, query, "requester_email=$1")
	require.Contains(t, query, "status IN ($2,$3)")
	require.Contains(t, query, "sla_met=$4")
	require.Len(t, args, 4)
}
