package location_test

import (
	"context"
	"errors"
	"testing"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
	"github.com/camy47/pokesocial/internal/location"
	"github.com/camy47/pokesocial/internal/sources/ipgeo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubGeocoder struct {
	place string
	err   error
	hook  func()
}

func (s stubGeocoder) ReverseGeocode(ctx context.Context, pos ports.Position) (string, error) {
	if s.hook != nil {
		s.hook()
	}
	return s.place, s.err
}

func TestResolve_Geocoded(t *testing.T) {
	r := location.NewResolver(ipgeo.Static{Latitude: 35.68, Longitude: 139.69}, stubGeocoder{place: "Tokyo, Tokyo"}, zaptest.NewLogger(t))
	assert.Equal(t, domain.UnknownLocation, r.Current())

	place, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tokyo, Tokyo", place)
	assert.Equal(t, "Tokyo, Tokyo", r.Current())
}

func TestResolve_GeocodeFailureFallsBackToCoordinates(t *testing.T) {
	r := location.NewResolver(ipgeo.Static{Latitude: 35.6812, Longitude: -139.7671}, stubGeocoder{err: domain.ErrUpstreamUnavailable}, zaptest.NewLogger(t))

	place, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "35.68°, -139.77°", place)
	assert.Equal(t, place, r.Current())
}

func TestResolve_PermissionDenied(t *testing.T) {
	r := location.NewResolver(ipgeo.Denied{}, stubGeocoder{place: "never"}, zaptest.NewLogger(t))

	place, err := r.Resolve(context.Background())
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, domain.UnknownLocation, place)
	assert.Equal(t, domain.UnknownLocation, r.Current())
}

func TestResolve_AbandonedLookupIsNotApplied(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := location.NewResolver(ipgeo.Static{}, stubGeocoder{place: "Late Town", hook: cancel}, zaptest.NewLogger(t))

	<-r.Start(ctx)
	assert.Equal(t, domain.UnknownLocation, r.Current())
}
