package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ventanilla/servicedesk/internal/api/dto"
	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/identity"
	"github.com/ventanilla/servicedesk/internal/service"
	"github.com/ventanilla/servicedesk/internal/sla"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		RequestType:    req.RequestType,
		Priority:       req.Priority,
		EntityType:     req.EntityType,
		RequesterName:  req.RequesterName,
		RequesterTitle: req.RequesterTitle,
		RequesterUnit:  req.RequesterUnit,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		TaxID:          req.TaxID,
		CompanyName:    req.CompanyName,
		Country:        req.Country,
		City:           req.City,
		Description:    req.Description,
		ResolutionDays: req.ResolutionDays,
		AssigneeName:   req.AssigneeName,
		AssigneeTitle:  req.AssigneeTitle,
		AssigneeUnit:   req.AssigneeUnit,
		AssigneeEmail:  req.AssigneeEmail,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), session.Profile, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets returns tickets the caller requested or is
// assigned to.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	tickets, err := h.service.ListForUser(c.UserContext(), session.Profile.Email, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, ok := identity.SessionFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// StartTicket POST /tickets/:id/start.
func (h *TicketsHandler) StartTicket(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.StartTicket(c.UserContext(), session.Profile.Email, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), session.Profile.Email, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AssignTicket(c.UserContext(), session.Profile.Email, id, service.AssigneeInput{
		Email: req.AssigneeEmail,
		Name:  req.AssigneeName,
		Title: req.AssigneeTitle,
		Unit:  req.AssigneeUnit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                ticket.ID,
		RequestType:       ticket.RequestType,
		Priority:          ticket.Priority,
		EntityType:        ticket.EntityType,
		RequesterName:     ticket.RequesterName,
		RequesterEmail:    ticket.RequesterEmail,
		RequesterTitle:    ticket.RequesterTitle,
		RequesterUnit:     ticket.RequesterUnit,
		SubjectName:       ticket.SubjectName,
		SubjectEmail:      ticket.SubjectEmail,
		SubjectPhone:      ticket.SubjectPhone,
		SubjectTaxID:      ticket.SubjectTaxID,
		SubjectCountry:    ticket.SubjectCountry,
		SubjectCity:       ticket.SubjectCity,
		Description:       ticket.Description,
		ResolutionDays:    ticket.ResolutionDays,
		AssigneeName:      ticket.AssigneeName,
		AssigneeEmail:     ticket.AssigneeEmail,
		AssigneeTitle:     ticket.AssigneeTitle,
		AssigneeUnit:      ticket.AssigneeUnit,
		Status:            ticket.Status,
		CreatedAt:         ticket.CreatedAt,
		AttentionAt:       ticket.AttentionAt,
		ClosedAt:          ticket.ClosedAt,
		Deadline:          ticket.Deadline,
		DeadlineFormatted: sla.FormatDeadline(ticket.Deadline),
		SLAMet:            ticket.SLAMet,
		SLAOutcome:        ticket.SLAOutcome,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
