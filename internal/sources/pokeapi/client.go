package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Client fetches creatures from PokeAPI and normalizes them.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Limiter:    rate.NewLimiter(rate.Limit(20), 10),
		Logger:     logger,
	}
}

var _ ports.CreatureSource = (*Client)(nil)

// GetCreature fetches creature id and returns it normalized. No partial
// creature is ever returned alongside an error.
func (c *Client) GetCreature(ctx context.Context, id int) (domain.Creature, error) {
	if id < 1 || id > domain.MaxCreatureID {
		return domain.Creature{}, fmt.Errorf("creature id %d out of range [1, %d]", id, domain.MaxCreatureID)
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		return domain.Creature{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/pokemon/%d", c.BaseURL, id), nil)
	if err != nil {
		return domain.Creature{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.Creature{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Creature{}, fmt.Errorf("%w: creature %d status %d", domain.ErrUpstreamUnavailable, id, resp.StatusCode)
	}

	var raw ApiPokemon
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Creature{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	creature, err := Normalize(raw)
	if err != nil {
		return domain.Creature{}, err
	}
	c.Logger.Debug("Creature fetched", zap.Int("id", creature.ID), zap.String("name", creature.Name))
	return creature, nil
}

// Normalize shapes a raw payload into a Creature. Types are ordered by slot.
func Normalize(raw ApiPokemon) (domain.Creature, error) {
	switch {
	case raw.ID == nil:
		return domain.Creature{}, fmt.Errorf("%w: missing id", domain.ErrMalformedPayload)
	case raw.Name == nil || *raw.Name == "":
		return domain.Creature{}, fmt.Errorf("%w: missing name", domain.ErrMalformedPayload)
	case raw.Height == nil:
		return domain.Creature{}, fmt.Errorf("%w: missing height", domain.ErrMalformedPayload)
	case raw.Weight == nil:
		return domain.Creature{}, fmt.Errorf("%w: missing weight", domain.ErrMalformedPayload)
	case raw.Sprites == nil || raw.Sprites.FrontDefault == nil:
		return domain.Creature{}, fmt.Errorf("%w: missing sprite", domain.ErrMalformedPayload)
	case raw.Types == nil:
		return domain.Creature{}, fmt.Errorf("%w: missing types", domain.ErrMalformedPayload)
	}

	slots := make([]ApiTypeSlot, len(raw.Types))
	copy(slots, raw.Types)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })

	types := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Type.Name == "" {
			return domain.Creature{}, fmt.Errorf("%w: unnamed type", domain.ErrMalformedPayload)
		}
		types = append(types, s.Type.Name)
	}

	return domain.Creature{
		ID:        *raw.ID,
		Name:      *raw.Name,
		SpriteURL: *raw.Sprites.FrontDefault,
		HeightDm:  *raw.Height,
		WeightDg:  *raw.Weight,
		Types:     types,
	}, nil
}
