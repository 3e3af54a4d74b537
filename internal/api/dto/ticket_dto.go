package dto

import (
	"time"

	"github.com/ventanilla/servicedesk/internal/domain"
)

// CreateTicketRequest is the ticket creation payload.
type CreateTicketRequest struct {
	RequestType    domain.RequestType    `json:"request_type"`
	Priority       domain.TicketPriority `json:"priority"`
	EntityType     domain.EntityType     `json:"entity_type"`
	RequesterName  string                `json:"requester_name,omitempty"`
	RequesterTitle string                `json:"requester_title,omitempty"`
	RequesterUnit  string                `json:"requester_unit,omitempty"`
	ContactName    string                `json:"contact_name,omitempty"`
	ContactEmail   string                `json:"contact_email,omitempty"`
	ContactPhone   string                `json:"contact_phone,omitempty"`
	TaxID          string                `json:"tax_id,omitempty"`
	CompanyName    string                `json:"company_name,omitempty"`
	Country        string                `json:"country,omitempty"`
	City           string                `json:"city,omitempty"`
	Description    string                `json:"description"`
	ResolutionDays int                   `json:"resolution_days"`
	AssigneeName   string                `json:"assignee_name,omitempty"`
	AssigneeTitle  string                `json:"assignee_title,omitempty"`
	AssigneeUnit   string                `json:"assignee_unit,omitempty"`
	AssigneeEmail  string                `json:"assignee_email,omitempty"`
}

// AssignTicketRequest sets the responsible person.
type AssignTicketRequest struct {
	AssigneeEmail string `json:"assignee_email"`
	AssigneeName  string `json:"assignee_name,omitempty"`
	AssigneeTitle string `json:"assignee_title,omitempty"`
	AssigneeUnit  string `json:"assignee_unit,omitempty"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                int64                 `json:"id"`
	RequestType       domain.RequestType    `json:"request_type"`
	Priority          domain.TicketPriority `json:"priority"`
	EntityType        domain.EntityType     `json:"entity_type"`
	RequesterName     string                `json:"requester_name"`
	RequesterEmail    string                `json:"requester_email"`
	RequesterTitle    string                `json:"requester_title"`
	RequesterUnit     string                `json:"requester_unit"`
	SubjectName       *string               `json:"subject_name,omitempty"`
	SubjectEmail      *string               `json:"subject_email,omitempty"`
	SubjectPhone      *string               `json:"subject_phone,omitempty"`
	SubjectTaxID      *string               `json:"subject_tax_id,omitempty"`
	SubjectCountry    *string               `json:"subject_country,omitempty"`
	SubjectCity       *string               `json:"subject_city,omitempty"`
	Description       string                `json:"description"`
	ResolutionDays    int                   `json:"resolution_days"`
	AssigneeName      *string               `json:"assignee_name,omitempty"`
	AssigneeEmail     *string               `json:"assignee_email,omitempty"`
	AssigneeTitle     *string               `json:"assignee_title,omitempty"`
	AssigneeUnit      *string               `json:"assignee_unit,omitempty"`
	Status            domain.TicketStatus   `json:"status"`
	CreatedAt         time.Time             `json:"created_at"`
	AttentionAt       *time.Time            `json:"attention_at,omitempty"`
	ClosedAt          *time.Time            `json:"closed_at,omitempty"`
	Deadline          time.Time             `json:"deadline"`
	DeadlineFormatted string                `json:"deadline_formatted"`
	SLAMet            *bool                 `json:"sla_met,omitempty"`
	SLAOutcome        *domain.SLAOutcome    `json:"sla_outcome,omitempty"`
}

// PersonResponse is a directory search result.
type PersonResponse struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
}

// MetricsResponse aggregates the admin dashboard counters.
type MetricsResponse struct {
	Total   int64            `json:"total"`
	SLAMet  int64            `json:"sla_met"`
	Overdue int64            `json:"overdue"`
	ByState []GroupCountItem `json:"by_state"`
	ByUnit  []GroupCountItem `json:"by_unit"`
}

// GroupCountItem is one group-by bucket.
type GroupCountItem struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}
