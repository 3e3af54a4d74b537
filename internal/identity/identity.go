package identity

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ventanilla/servicedesk/internal/config"
	"github.com/ventanilla/servicedesk/internal/domain"
)

// Claims mirrors the profile attributes the identity provider embeds in its
// tokens. Email is preferred; PreferredUsername is the fallback identifier
// for accounts without a primary mail attribute.
type Claims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	JobTitle          string `json:"job_title,omitempty"`
	Department        string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Profile resolves the claims into a session profile, applying the
// email fallback.
func (c *Claims) Profile() domain.Profile {
	email := c.Email
	if email == "" {
		email = c.PreferredUsername
	}
	return domain.Profile{
		Email:       email,
		DisplayName: c.Name,
		JobTitle:    c.JobTitle,
		Department:  c.Department,
	}
}

// TokenManager validates bearer tokens issued by the identity provider.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Email == "" && claims.PreferredUsername == "" {
		return nil, errors.New("token carries no identity")
	}
	return claims, nil
}

// IssueToken signs a token for the profile. Used by tests and local tooling;
// production tokens come from the identity provider.
func (tm *TokenManager) IssueToken(profile domain.Profile, ttl time.Duration) (string, error) {
	claims := &Claims{
		Email:      profile.Email,
		Name:       profile.DisplayName,
		JobTitle:   profile.JobTitle,
		Department: profile.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.Email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Authorizer answers role questions for authenticated identities.
type Authorizer struct {
	adminEmails    map[string]struct{}
	managerKeyword string
}

// NewAuthorizer builds role checks from configuration.
func NewAuthorizer(cfg config.AuthConfig) *Authorizer {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	keyword := strings.ToLower(strings.TrimSpace(cfg.ManagerKeyword))
	if keyword == "" {
		keyword = "gerente"
	}
	return &Authorizer{adminEmails: admins, managerKeyword: keyword}
}

// IsAdmin tests membership in the configured allow-list, case-insensitive.
func (a *Authorizer) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := a.adminEmails[strings.ToLower(email)]
	return ok
}

// IsManager tests the job title for the manager keyword, case-insensitive.
func (a *Authorizer) IsManager(jobTitle string) bool {
	if jobTitle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(jobTitle), a.managerKeyword)
}
