package randomuser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://randomuser.me/api"

// Client draws random identities for synthetic post authors.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
}

var _ ports.PersonSource = (*Client)(nil)

func (c *Client) RandomPerson(ctx context.Context) (domain.Identity, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, fmt.Errorf("%w: randomuser status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var data ApiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if len(data.Results) == 0 || data.Results[0].Login.Username == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty results", domain.ErrMalformedPayload)
	}

	u := data.Results[0]
	return domain.Identity{
		Username:  u.Login.Username,
		AvatarURL: u.Picture.Large,
	}, nil
}
