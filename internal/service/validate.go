package service

import (
	"strings"

	"github.com/ventanilla/servicedesk/internal/domain"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

const minDescriptionLength = 10

// maxResolutionDays caps the requester's estimate per priority.
var maxResolutionDays = map[domain.TicketPriority]int{
	domain.TicketPriorityHigh:   5,
	domain.TicketPriorityMedium: 10,
	domain.TicketPriorityLow:    15,
}

var validRequestTypes = map[domain.RequestType]struct{}{
	domain.RequestTypeInquiry:       {},
	domain.RequestTypeTechSupport:   {},
	domain.RequestTypeComplaint:     {},
	domain.RequestTypeChangeRequest: {},
	domain.RequestTypeIncident:      {},
}

// validateCreateInput enforces the structural and cross-field rules before
// any persistence call.
func validateCreateInput(input TicketCreateInput) error {
	if _, ok := validRequestTypes[input.RequestType]; !ok {
		return apperrors.NewValidationError("unknown request type", map[string]any{"request_type": input.RequestType})
	}
	if _, ok := maxResolutionDays[input.Priority]; !ok {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if len(strings.TrimSpace(input.Description)) < minDescriptionLength {
		return apperrors.NewValidationError("description too short", map[string]any{"min_length": minDescriptionLength})
	}
	if input.ResolutionDays < 1 {
		return apperrors.NewValidationError("resolution days must be at least 1", nil)
	}
	if maxDays := maxResolutionDays[input.Priority]; input.ResolutionDays > maxDays {
		return apperrors.NewValidationError("resolution days inconsistent with priority", map[string]any{
			"priority": input.Priority,
			"max_days": maxDays,
		})
	}
	return validateEntityFields(input)
}

func validateEntityFields(input TicketCreateInput) error {
	missing := func(fields ...string) error {
		return apperrors.NewValidationError("missing required fields for entity type", map[string]any{
			"entity_type": input.EntityType,
			"fields":      fields,
		})
	}
	switch input.EntityType {
	case domain.EntityNaturalPerson:
		if blank(input.ContactName) || blank(input.ContactEmail) || blank(input.ContactPhone) {
			return missing("contact_name", "contact_email", "contact_phone")
		}
	case domain.EntityLocalCompany:
		if blank(input.TaxID) || blank(input.CompanyName) || blank(input.City) {
			return missing("tax_id", "company_name", "city")
		}
	case domain.EntityForeignCompany:
		if blank(input.TaxID) || blank(input.CompanyName) || blank(input.Country) || blank(input.City) {
			return missing("tax_id", "company_name", "country", "city")
		}
	default:
		return apperrors.NewValidationError("unknown entity type", map[string]any{"entity_type": input.EntityType})
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
