package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/config"
	"github.com/ventanilla/servicedesk/internal/domain"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// Client resolves partial names against the corporate directory. Results are
// cached in redis because the upstream throttles aggressively and the lookups
// only prefill assignment fields.
type Client struct {
	httpClient *http.Client
	cache      *redis.Client
	logger     *zap.Logger
	baseURL    string
	token      string
	cacheTTL   time.Duration
}

// NewClient constructs the directory client. cache may be nil.
func NewClient(cfg config.DirectoryConfig, cache *redis.Client, logger *zap.Logger) *Client {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		logger:     logger,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		cacheTTL:   ttl,
	}
}

type searchResponse struct {
	Value []struct {
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		JobTitle          string `json:"jobTitle"`
		Department        string `json:"department"`
	} `json:"value"`
}

// SearchByName resolves a partial display name to candidate people. Queries
// shorter than two characters return nothing.
func (c *Client) SearchByName(ctx context.Context, partialName string) ([]domain.Person, error) {
	partialName = strings.TrimSpace(partialName)
	if len(partialName) < 2 {
		return []domain.Person{}, nil
	}
	if c.token == "" {
		return nil, apperrors.NewDependencyUnavailable("directory", nil)
	}

	cacheKey := "directory:search:" + strings.ToLower(partialName)
	if cached := c.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	people, err := c.query(ctx, partialName)
	if err != nil {
		return nil, err
	}
	c.toCache(ctx, cacheKey, people)
	return people, nil
}

func (c *Client) query(ctx context.Context, partialName string) ([]domain.Person, error) {
	safeName := strings.ReplaceAll(partialName, "'", "''")
	endpoint := fmt.Sprintf(
		"%s/users?$filter=startswith(displayName,'%s')&$select=displayName,mail,userPrincipalName,jobTitle,department&$top=5",
		c.baseURL, url.QueryEscape(safeName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("directory", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("directory", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewDependencyUnavailable("directory", fmt.Errorf("directory status %d", resp.StatusCode))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewDependencyUnavailable("directory", err)
	}

	people := make([]domain.Person, 0, len(payload.Value))
	for _, entry := range payload.Value {
		email := entry.Mail
		if email == "" {
			email = entry.UserPrincipalName
		}
		person := domain.Person{
			Name:       entry.DisplayName,
			Email:      email,
			JobTitle:   entry.JobTitle,
			Department: entry.Department,
		}
		if person.Name == "" && person.Email == "" {
			continue
		}
		people = append(people, person)
	}
	return people, nil
}

func (c *Client) fromCache(ctx context.Context, key string) []domain.Person {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var people []domain.Person
	if err := json.Unmarshal(raw, &people); err != nil {
		return nil
	}
	return people
}

func (c *Client) toCache(ctx context.Context, key string, people []domain.Person) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(people)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL).Err(); err != nil {
		c.logger.Debug("directory cache write failed", zap.Error(err))
	}
}
