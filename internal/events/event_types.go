package events

import (
	"time"

	"github.com/ventanilla/servicedesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
)

// Event represents a domain event emitted by services. ActorEmail identifies
// the authenticated session that triggered the change.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TicketID   int64       `json:"ticket_id"`
	ActorEmail string      `json:"actor_email"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequestType domain.RequestType    `json:"request_type"`
	Priority    domain.TicketPriority `json:"priority"`
	Deadline    time.Time             `json:"deadline"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	SLAOutcome *domain.SLAOutcome  `json:"sla_outcome,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeEmail string             `json:"assignee_email"`
	RequestType   domain.RequestType `json:"request_type"`
}
