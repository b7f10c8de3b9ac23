// Package location resolves the place string stamped on new catches.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"go.uber.org/zap"
)

// Resolver performs one lookup per session: position, then reverse
// geocoding. Until it succeeds, Current reports domain.UnknownLocation.
type Resolver struct {
	Positions ports.PositionSource
	Geocoder  ports.Geocoder
	Logger    *zap.Logger

	mu       sync.RWMutex
	place    string
	resolved bool
}

func NewResolver(positions ports.PositionSource, geocoder ports.Geocoder, logger *zap.Logger) *Resolver {
	return &Resolver{Positions: positions, Geocoder: geocoder, Logger: logger}
}

// Resolve looks the place up. Geocoding failures fall back to rounded
// coordinates; a position failure leaves the location unknown. The result is
// applied only if ctx is still live when the lookup finishes.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	pos, err := r.Positions.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			r.Logger.Info("Location access denied")
		} else {
			r.Logger.Warn("Position lookup failed", zap.Error(err))
		}
		return domain.UnknownLocation, err
	}

	place, err := r.Geocoder.ReverseGeocode(ctx, pos)
	if err != nil {
		r.Logger.Warn("Geocoding failed, using coordinates", zap.Error(err))
		place = Coordinates(pos)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return domain.UnknownLocation, ctx.Err()
	}
	r.place = place
	r.resolved = true
	r.Logger.Debug("Location resolved", zap.String("place", place))
	return place, nil
}

// Start runs Resolve in the background. Cancelling ctx abandons the lookup.
func (r *Resolver) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Resolve(ctx)
	}()
	return done
}

func (r *Resolver) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.resolved {
		return domain.UnknownLocation
	}
	return r.place
}

// Coordinates formats a position as "12.35°, -45.68°".
func Coordinates(pos ports.Position) string {
	return fmt.Sprintf("%.2f°, %.2f°", pos.Latitude, pos.Longitude)
}
