package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusAnnulled   TicketStatus = "ANNULLED"
)

// TerminalStatuses are excluded from active and reminder queries.
var TerminalStatuses = []TicketStatus{TicketStatusClosed, TicketStatusAnnulled}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityLow    TicketPriority = "LOW"
)

// RequestType enumerates the kinds of service requests.
type RequestType string

const (
	RequestTypeInquiry       RequestType = "INQUIRY"
	RequestTypeTechSupport   RequestType = "TECH_SUPPORT"
	RequestTypeComplaint     RequestType = "COMPLAINT"
	RequestTypeChangeRequest RequestType = "CHANGE_REQUEST"
	RequestTypeIncident      RequestType = "INCIDENT"
)

// EntityType classifies the subject of a request.
type EntityType string

const (
	EntityNaturalPerson  EntityType = "NATURAL_PERSON"
	EntityLocalCompany   EntityType = "LOCAL_COMPANY"
	EntityForeignCompany EntityType = "FOREIGN_COMPANY"
)

// SLAOutcome records whether a closed ticket met its commitment deadline.
type SLAOutcome string

const (
	SLAOutcomeMet     SLAOutcome = "MET"
	SLAOutcomeExpired SLAOutcome = "EXPIRED"
)

// Ticket is the aggregate for service requests. The commitment deadline is
// computed once at creation and never recomputed; SLAMet and SLAOutcome stay
// nil until the close transition stamps them.
type Ticket struct {
	ID             int64
	RequestType    RequestType
	Priority       TicketPriority
	EntityType     EntityType
	RequesterName  string
	RequesterEmail string
	RequesterTitle string
	RequesterUnit  string
	SubjectName    *string
	SubjectEmail   *string
	SubjectPhone   *string
	SubjectTaxID   *string
	SubjectCountry *string
	SubjectCity    *string
	Description    string
	ResolutionDays int
	AssigneeName   *string
	AssigneeEmail  *string
	AssigneeTitle  *string
	AssigneeUnit   *string
	Status         TicketStatus
	CreatedAt      time.Time
	AttentionAt    *time.Time
	ClosedAt       *time.Time
	Deadline       time.Time
	SLAMet         *bool
	SLAOutcome     *SLAOutcome
}

// Assigned reports whether the ticket has a responsible person to notify.
func (t *Ticket) Assigned() bool {
	return t.AssigneeEmail != nil && *t.AssigneeEmail != ""
}
