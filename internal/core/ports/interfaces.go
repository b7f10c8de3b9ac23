package ports

import (
	"context"
	"image"

	"github.com/camy47/pokesocial/internal/core/domain"
)

// CreatureSource looks up a normalized creature by id in [1, domain.MaxCreatureID].
type CreatureSource interface {
	GetCreature(ctx context.Context, id int) (domain.Creature, error)
}

// PersonSource returns one random identity per call.
type PersonSource interface {
	RandomPerson(ctx context.Context) (domain.Identity, error)
}

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// PositionSource stands in for device geolocation.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Geocoder turns a position into a human-readable place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, pos Position) (string, error)
}

// KeyValueStore is the synchronous string store backing all persisted state.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Camera is a still-image capture device.
type Camera interface {
	Open(ctx context.Context) error
	Capture() (image.Image, error)
	Release() error
}

// Captioner may write a caption for a synthetic post.
type Captioner interface {
	WriteCaption(ctx context.Context, creature domain.Creature, location string) (string, error)
}

type UserAction string

const (
	ActionApprove    UserAction = "approve"
	ActionRegenerate UserAction = "regenerate"
	ActionSkip       UserAction = "skip"
)

// Interaction asks the user to decide on an encounter.
type Interaction interface {
	Confirm(ctx context.Context, title, body string) (UserAction, error)
}

// EncounterInteraction is an Interaction that can show the creature itself,
// e.g. with its sprite, instead of a plain text card.
type EncounterInteraction interface {
	Interaction
	ConfirmEncounter(ctx context.Context, creature domain.Creature) (UserAction, error)
}
