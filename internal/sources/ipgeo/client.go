package ipgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
)

const DefaultBaseURL = "http://ip-api.com"

// Client approximates the device position from the public IP address.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Timeout:    10 * time.Second,
	}
}

var _ ports.PositionSource = (*Client)(nil)

type apiLookup struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (c *Client) CurrentPosition(ctx context.Context) (ports.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/json/?fields=status,message,lat,lon", nil)
	if err != nil {
		return ports.Position{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ports.Position{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Position{}, fmt.Errorf("%w: ip lookup status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var data apiLookup
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return ports.Position{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if data.Status != "success" {
		return ports.Position{}, fmt.Errorf("%w: ip lookup %s: %s", domain.ErrUpstreamUnavailable, data.Status, data.Message)
	}
	if data.Lat == nil || data.Lon == nil {
		return ports.Position{}, fmt.Errorf("%w: missing coordinates", domain.ErrMalformedPayload)
	}
	return ports.Position{Latitude: *data.Lat, Longitude: *data.Lon}, nil
}

// Static always reports a fixed position.
type Static ports.Position

func (s Static) CurrentPosition(ctx context.Context) (ports.Position, error) {
	return ports.Position(s), nil
}

// Denied behaves like a refused location permission.
type Denied struct{}

func (Denied) CurrentPosition(ctx context.Context) (ports.Position, error) {
	return ports.Position{}, fmt.Errorf("%w: location access denied", domain.ErrPermissionDenied)
}
