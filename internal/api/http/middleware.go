package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/observability"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// ErrorHandler maps DomainError to the JSON error envelope. Non-domain errors
// are treated as internal and their cause is logged, not leaked.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		if domainErr.Code == apperrors.CodeInternal {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.Error(err))
		}
		body := fiber.Map{
			"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			},
		}
		if len(domainErr.Details) > 0 {
			body["error"].(fiber.Map)["details"] = domainErr.Details
		}
		return c.Status(domainErr.HTTPStatus).JSON(body)
	}
}

// RecoverMiddleware converts panics into internal errors.
func RecoverMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()))
				err = apperrors.NewInternalError(nil)
			}
		}()
		return c.Next()
	}
}

// TimeoutMiddleware bounds request handling time.
func TimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
