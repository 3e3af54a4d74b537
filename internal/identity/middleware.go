package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ventanilla/servicedesk/internal/domain"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

const sessionKey = "identity_session"

// Session represents the authenticated caller.
type Session struct {
	Profile domain.Profile
	Admin   bool
	Manager bool
}

// Middleware validates bearer tokens and attaches sessions.
type Middleware struct {
	tokens     *TokenManager
	authorizer *Authorizer
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, authorizer *Authorizer) *Middleware {
	return &Middleware{tokens: tokens, authorizer: authorizer}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	profile := claims.Profile()
	session := &Session{
		Profile: profile,
		Admin:   m.authorizer.IsAdmin(profile.Email),
		Manager: m.authorizer.IsManager(profile.JobTitle),
	}
	c.Locals(sessionKey, session)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (*Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*Session)
	return session, ok
}

// RequireAdmin rejects non-admin sessions.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !session.Admin {
			return apperrors.NewForbidden("administrator role required", nil)
		}
		return c.Next()
	}
}
