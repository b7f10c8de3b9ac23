// Package app wires the stores, sources and background activities into one
// user session.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/camy47/pokesocial/internal/camera"
	"github.com/camy47/pokesocial/internal/collection"
	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
	"github.com/camy47/pokesocial/internal/feed"
	"github.com/camy47/pokesocial/internal/location"
	"github.com/camy47/pokesocial/internal/profile"

	"go.uber.org/zap"
)

type Deps struct {
	KV        ports.KeyValueStore
	Creatures ports.CreatureSource
	People    ports.PersonSource
	Positions ports.PositionSource
	Geocoder  ports.Geocoder
	Captioner ports.Captioner // optional
	Camera    ports.Camera    // optional
	Logger    *zap.Logger

	BatchSize       int
	RefreshInterval time.Duration

	Rand *rand.Rand
	Now  func() time.Time
}

type Session struct {
	KV         ports.KeyValueStore
	Creatures  ports.CreatureSource
	Camera     ports.Camera
	Profile    *profile.State
	Collection *collection.Store
	Pool       *feed.Pool
	Generator  *feed.Generator
	Location   *location.Resolver
	Logger     *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	located <-chan struct{}
}

func NewSession(d Deps) *Session {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(d.Now().UnixNano()))
	}

	prof := profile.NewState(d.KV, d.Logger.Named("profile"))
	store := collection.NewStore(d.KV, prof, d.Logger.Named("collection"),
		collection.WithRand(rand.New(rand.NewSource(d.Rand.Int63()))),
		collection.WithClock(d.Now))

	gen := feed.NewGenerator(d.Creatures, d.People, d.Logger.Named("feed"))
	gen.Captioner = d.Captioner
	gen.Seed(rand.New(rand.NewSource(d.Rand.Int63())), d.Now)
	if d.BatchSize > 0 {
		gen.BatchSize = d.BatchSize
	}
	if d.RefreshInterval > 0 {
		gen.Interval = d.RefreshInterval
	}

	return &Session{
		KV:         d.KV,
		Creatures:  d.Creatures,
		Camera:     d.Camera,
		Profile:    prof,
		Collection: store,
		Pool:       feed.NewPool(),
		Generator:  gen,
		Location:   location.NewResolver(d.Positions, d.Geocoder, d.Logger.Named("location")),
		Logger:     d.Logger,
		rng:        d.Rand,
		now:        d.Now,
	}
}

// Start launches the one-shot location lookup and the periodic synthetic
// feed. Both stop applying results once Close is called.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.located = s.Location.Start(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Generator.Run(ctx, s.Pool)
	}()
}

// Close tears the session down and waits for background work to finish.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.located != nil {
		<-s.located
	}
	s.wg.Wait()
}

// Encounter fetches a random creature and makes it the pending encounter,
// replacing any previous one. On failure the previous state is kept.
func (s *Session) Encounter(ctx context.Context) (domain.Creature, error) {
	s.rngMu.Lock()
	id := s.rng.Intn(domain.MaxCreatureID) + 1
	s.rngMu.Unlock()

	c, err := s.Creatures.GetCreature(ctx, id)
	if err != nil {
		s.Logger.Warn("Encounter failed", zap.Int("id", id), zap.Error(err))
		return domain.Creature{}, err
	}
	s.Collection.SetPending(c)
	s.Logger.Info("Wild creature appeared", zap.Int("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// Catch turns the pending encounter into an owned post at the current location.
func (s *Session) Catch() (domain.Post, error) {
	c, ok := s.Collection.Pending()
	if !ok {
		return domain.Post{}, domain.ErrNoPendingEncounter
	}
	post, _ := s.Collection.Catch(c, s.Location.Current())
	return post, nil
}

// Decide presents encounters through ui until the trainer catches one or
// lets one go. It returns the caught post, if any.
func (s *Session) Decide(ctx context.Context, ui ports.Interaction) (*domain.Post, error) {
	c, ok := s.Collection.Pending()
	for {
		if !ok {
			var err error
			if c, err = s.Encounter(ctx); err != nil {
				return nil, err
			}
		}

		action, err := confirm(ctx, ui, c)
		if err != nil {
			return nil, err
		}

		switch action {
		case ports.ActionApprove:
			post, err := s.Catch()
			if err != nil {
				return nil, err
			}
			return &post, nil
		case ports.ActionRegenerate:
			ok = false
		default:
			s.Collection.DiscardPending()
			return nil, nil
		}
	}
}

func confirm(ctx context.Context, ui ports.Interaction, c domain.Creature) (ports.UserAction, error) {
	if eu, ok := ui.(ports.EncounterInteraction); ok {
		return eu.ConfirmEncounter(ctx, c)
	}
	return ui.Confirm(ctx, fmt.Sprintf("A wild %s appeared!", c.DisplayName()), DescribeCreature(c))
}

// Feed assembles the current view for tab.
func (s *Session) Feed(tab domain.Tab) []domain.Post {
	return feed.Assemble(s.Collection.Posts(), s.Pool.Posts(), tab)
}

// RefreshFeed generates one synthetic batch in the foreground.
func (s *Session) RefreshFeed(ctx context.Context) int {
	gen := s.Pool.Begin()
	posts := s.Generator.Generate(ctx)
	s.Pool.Apply(ctx, gen, posts)
	return len(posts)
}

func (s *Session) ToggleLike(postID string) (domain.Post, error) {
	posts, err := s.Collection.ToggleLike(postID)
	if err != nil {
		return domain.Post{}, err
	}
	for _, p := range posts {
		if p.ID == postID {
			return p, nil
		}
	}
	return domain.Post{}, domain.ErrNotFound
}

// Release removes an owned post and reports whether it existed.
func (s *Session) Release(postID string) bool {
	before := s.Collection.Len()
	return len(s.Collection.Release(postID)) < before
}

// CaptureAvatar replaces the profile avatar with a camera still.
func (s *Session) CaptureAvatar(ctx context.Context, mirror bool) error {
	if s.Camera == nil {
		return errors.New("no camera configured")
	}
	url, err := camera.Snapshot(ctx, s.Camera, mirror)
	if err != nil {
		return err
	}
	s.Profile.SetAvatar(url)
	return nil
}

// Export writes the user's profile, collection and settings as one JSON document.
func (s *Session) Export(w io.Writer) error {
	doc := domain.Export{
		UserProfile:   s.Profile.Snapshot(),
		CaughtPokemon: s.Collection.Posts(),
		Settings:      profile.LoadSettings(s.KV, s.Logger),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
