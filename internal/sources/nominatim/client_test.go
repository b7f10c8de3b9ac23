package nominatim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
	"github.com/camy47/pokesocial/internal/sources/nominatim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "35.6", r.URL.Query().Get("lat"))
		assert.Equal(t, nominatim.UserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"address":{"town":"Kamakura","state":"Kanagawa","country":"Japan"}}`))
	}))
	defer srv.Close()

	got, err := nominatim.NewClient(srv.URL).ReverseGeocode(context.Background(), ports.Position{Latitude: 35.6, Longitude: 139.5})
	require.NoError(t, err)
	assert.Equal(t, "Kamakura, Kanagawa", got)
}

func TestReverseGeocode_NoAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := nominatim.NewClient(srv.URL).ReverseGeocode(context.Background(), ports.Position{})
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestPlaceName(t *testing.T) {
	tests := []struct {
		name string
		addr *nominatim.ApiAddress
		want string
	}{
		{"nil", nil, ""},
		{"city and state", &nominatim.ApiAddress{City: "Osaka", State: "Osaka Prefecture"}, "Osaka, Osaka Prefecture"},
		{"village falls back to country", &nominatim.ApiAddress{Village: "Hallstatt", Country: "Austria"}, "Hallstatt, Austria"},
		{"state only", &nominatim.ApiAddress{State: "Hokkaido"}, "Hokkaido, Hokkaido"},
		{"country only", &nominatim.ApiAddress{Country: "Iceland"}, "Iceland"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nominatim.PlaceName(tt.addr))
		})
	}
}
