package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ventanilla/servicedesk/internal/api/dto"
	"github.com/ventanilla/servicedesk/internal/repository"
	"github.com/ventanilla/servicedesk/internal/service"
)

// AdminHandler serves the management dashboard endpoints. The router guards
// every route here with the admin middleware.
type AdminHandler struct {
	service *service.TicketService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(ticketService *service.TicketService) *AdminHandler {
	return &AdminHandler{service: ticketService}
}

// Metrics GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	metrics, err := h.service.Metrics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MetricsResponse{
		Total:   metrics.Total,
		SLAMet:  metrics.SLAMet,
		Overdue: metrics.Overdue,
		ByState: groupItems(metrics.ByState),
		ByUnit:  groupItems(metrics.ByUnit),
	}})
}

// RecentClosed GET /admin/tickets/recent-closed.
func (h *AdminHandler) RecentClosed(c *fiber.Ctx) error {
	limit := parseIntQuery(c.Query("limit"), 10)
	tickets, err := h.service.RecentClosed(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

func groupItems(counts []repository.GroupCount) []dto.GroupCountItem {
	items := make([]dto.GroupCountItem, 0, len(counts))
	for _, gc := range counts {
		items = append(items, dto.GroupCountItem{Value: gc.Value, Count: gc.Count})
	}
	return items
}
