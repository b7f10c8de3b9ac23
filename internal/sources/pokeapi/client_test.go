package pokeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/sources/pokeapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const pikachuJSON = `{
	"id": 25,
	"name": "pikachu",
	"height": 4,
	"weight": 60,
	"sprites": {"front_default": "https://sprites.example/25.png", "back_default": null},
	"types": [{"slot": 1, "type": {"name": "electric", "url": "https://pokeapi.co/api/v2/type/13/"}}],
	"abilities": []
}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/25" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCreature_Normalizes(t *testing.T) {
	srv := newServer(t, http.StatusOK, pikachuJSON)
	c := pokeapi.NewClient(srv.URL, zaptest.NewLogger(t))

	got, err := c.GetCreature(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, domain.Creature{
		ID:        25,
		Name:      "pikachu",
		SpriteURL: "https://sprites.example/25.png",
		HeightDm:  4,
		WeightDg:  60,
		Types:     []string{"electric"},
	}, got)
	assert.Equal(t, "Pikachu", got.DisplayName())
}

func TestGetCreature_UpstreamErrors(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `oops`)
	c := pokeapi.NewClient(srv.URL, zaptest.NewLogger(t))

	got, err := c.GetCreature(context.Background(), 25)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Zero(t, got)
}

func TestGetCreature_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{not json`},
		{"missing name", `{"id":25,"height":4,"weight":60,"sprites":{"front_default":"x"},"types":[]}`},
		{"missing sprite", `{"id":25,"name":"pikachu","height":4,"weight":60,"sprites":{},"types":[]}`},
		{"missing types", `{"id":25,"name":"pikachu","height":4,"weight":60,"sprites":{"front_default":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, http.StatusOK, tt.body)
			c := pokeapi.NewClient(srv.URL, zaptest.NewLogger(t))

			got, err := c.GetCreature(context.Background(), 25)
			assert.ErrorIs(t, err, domain.ErrMalformedPayload)
			assert.Zero(t, got)
		})
	}
}

func TestGetCreature_RejectsOutOfRangeID(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	t.Cleanup(srv.Close)
	c := pokeapi.NewClient(srv.URL, zaptest.NewLogger(t))

	for _, id := range []int{0, -1, domain.MaxCreatureID + 1} {
		_, err := c.GetCreature(context.Background(), id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
		assert.NotErrorIs(t, err, domain.ErrNotFound, "not-found is reserved for posts")
		assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}
	assert.Zero(t, hits)
}

func TestNormalize_OrdersTypesBySlot(t *testing.T) {
	id, name, h, w, sprite := 6, "charizard", 17, 905, "s"
	raw := pokeapi.ApiPokemon{ID: &id, Name: &name, Height: &h, Weight: &w}
	raw.Sprites = &struct {
		FrontDefault *string `json:"front_default"`
	}{FrontDefault: &sprite}
	var flying, fire pokeapi.ApiTypeSlot
	flying.Slot, flying.Type.Name = 2, "flying"
	fire.Slot, fire.Type.Name = 1, "fire"
	raw.Types = []pokeapi.ApiTypeSlot{flying, fire}

	got, err := pokeapi.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"fire", "flying"}, got.Types)
}
