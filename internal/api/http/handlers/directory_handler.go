package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ventanilla/servicedesk/internal/api/dto"
	"github.com/ventanilla/servicedesk/internal/directory"
	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/identity"
	"github.com/ventanilla/servicedesk/internal/repository"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// DirectoryHandler resolves partial names for the assignment form. The
// corporate directory is the primary source; prior requesters stored locally
// serve as a fallback when the directory is unreachable.
type DirectoryHandler struct {
	directory *directory.Client
	tickets   repository.TicketRepository
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(client *directory.Client, tickets repository.TicketRepository) *DirectoryHandler {
	return &DirectoryHandler{directory: client, tickets: tickets}
}

// Search GET /directory/search?q=.
func (h *DirectoryHandler) Search(c *fiber.Ctx) error {
	if _, ok := identity.SessionFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query := c.Query("q")

	people, err := h.directory.SearchByName(c.UserContext(), query)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeDependencyUnavailable) {
			return err
		}
		people, err = h.tickets.SearchRequesters(c.UserContext(), query, 5)
		if err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": personResponses(people)})
}

func personResponses(people []domain.Person) []dto.PersonResponse {
	items := make([]dto.PersonResponse, 0, len(people))
	for _, person := range people {
		items = append(items, dto.PersonResponse{
			Name:       person.Name,
			Email:      person.Email,
			JobTitle:   person.JobTitle,
			Department: person.Department,
		})
	}
	return items
}
