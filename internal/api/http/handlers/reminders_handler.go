package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/ventanilla/servicedesk/internal/config"
	"github.com/ventanilla/servicedesk/internal/service"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// RemindersHandler exposes the reminder sweep to an external scheduler. The
// route bypasses the session middleware; the caller proves itself with a
// shared cron token checked against a bcrypt hash.
type RemindersHandler struct {
	service *service.ReminderService
	cfg     config.ReminderConfig
}

// NewRemindersHandler constructs handler.
func NewRemindersHandler(reminderService *service.ReminderService, cfg config.ReminderConfig) *RemindersHandler {
	return &RemindersHandler{service: reminderService, cfg: cfg}
}

// Run GET /reminders/run triggers one reminder sweep.
func (h *RemindersHandler) Run(c *fiber.Ctx) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	days := parseIntQuery(c.Query("days"), h.cfg.LookaheadDays)
	run, err := h.service.CheckAndSend(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": run})
}

func (h *RemindersHandler) authorize(c *fiber.Ctx) error {
	if h.cfg.CronTokenHash == "" {
		return apperrors.NewDependencyUnavailable("reminder endpoint", nil)
	}
	header := c.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return apperrors.NewUnauthorized("cron token required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.CronTokenHash), []byte(token)); err != nil {
		return apperrors.NewUnauthorized("invalid cron token")
	}
	return nil
}
