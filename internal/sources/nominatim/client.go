package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	UserAgent      = "PokemonApp/1.0"
)

// Client reverse-geocodes positions with OpenStreetMap Nominatim.
// Nominatim's usage policy allows one request per second.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Timeout    time.Duration
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		Timeout:    5 * time.Second,
	}
}

var _ ports.Geocoder = (*Client)(nil)

func (c *Client) ReverseGeocode(ctx context.Context, pos ports.Position) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	if err := c.Limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: geocoding status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var data ApiReverse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	place := PlaceName(data.Address)
	if place == "" {
		return "", fmt.Errorf("%w: no location data", domain.ErrMalformedPayload)
	}
	return place, nil
}

// PlaceName renders "<city>, <state>", or just the state/country when no
// settlement is known.
func PlaceName(a *ApiAddress) string {
	if a == nil {
		return ""
	}
	city := firstNonEmpty(a.City, a.Town, a.Village, a.Suburb, a.County, a.State)
	state := firstNonEmpty(a.State, a.Country)
	if city == "" {
		return state
	}
	if state == "" {
		return city
	}
	return city + ", " + state
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
