// Package collection owns the user's caught posts and the pending encounter.
//
// Every mutation rebuilds the whole collection in memory and writes the full
// serialized value back to the key-value store. Write failures are logged and
// swallowed: the in-memory state stays authoritative for the session.
package collection

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"go.uber.org/zap"
)

// Persistence keys.
const (
	KeyCaught  = "caughtPokemon"
	KeyPending = "currentPokemon"
)

// MaxCatchLikes bounds the initial like count of a fresh catch (inclusive).
const MaxCatchLikes = 999

// Trainer is the profile the store reports to: it supplies the owner
// identity for new catches and receives the collection size after every change.
type Trainer interface {
	Identity() domain.Identity
	CollectionChanged(count int)
}

type Store struct {
	kv      ports.KeyValueStore
	trainer Trainer
	logger  *zap.Logger
	rng     *rand.Rand
	now     func() time.Time

	mu         sync.Mutex
	posts      []domain.Post
	pending    *domain.Creature
	lastIssued time.Time
}

type Option func(*Store)

// WithRand makes like counts deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) { s.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore loads the persisted collection and pending encounter. Missing or
// corrupt values load as empty; loading never fails.
func NewStore(kv ports.KeyValueStore, trainer Trainer, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		trainer: trainer,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.posts = s.loadPosts()
	s.pending = s.loadPending()
	for _, p := range s.posts {
		if p.CreatedAt.After(s.lastIssued) {
			s.lastIssued = p.CreatedAt
		}
	}
	s.trainer.CollectionChanged(len(s.posts))
	return s
}

func (s *Store) loadPosts() []domain.Post {
	raw, ok, err := s.kv.Get(KeyCaught)
	if err != nil {
		s.logger.Warn("Failed to read caught collection", zap.Error(err))
		return []domain.Post{}
	}
	if !ok {
		return []domain.Post{}
	}
	var posts []domain.Post
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		s.logger.Warn("Caught collection is corrupt, starting empty", zap.Error(err))
		return []domain.Post{}
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts
}

func (s *Store) loadPending() *domain.Creature {
	raw, ok, err := s.kv.Get(KeyPending)
	if err != nil || !ok {
		return nil
	}
	var c domain.Creature
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.Warn("Pending encounter is corrupt, dropping it", zap.Error(err))
		return nil
	}
	return &c
}

// Posts returns a copy of the collection, newest catch first.
func (s *Store) Posts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePosts(s.posts)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// Pending returns the uncaught encounter, if any.
func (s *Store) Pending() (domain.Creature, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.Creature{}, false
	}
	return cloneCreature(*s.pending), true
}

// SetPending replaces any previous uncaught encounter.
func (s *Store) SetPending(c domain.Creature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c = cloneCreature(c)
	s.pending = &c
	s.persistPending()
}

// DiscardPending drops the uncaught encounter.
func (s *Store) DiscardPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.persistPending()
}

// Catch prepends an owned post for creature and clears the pending
// encounter. It returns the new post and a snapshot of the collection.
func (s *Store) Catch(creature domain.Creature, location string) (domain.Post, []domain.Post) {
	if location == "" {
		location = domain.UnknownLocation
	}
	owner := s.trainer.Identity()

	s.mu.Lock()
	createdAt := s.nextTimestamp()
	post := domain.Post{
		ID:            domain.PostID(creature.ID, createdAt),
		Creature:      cloneCreature(creature),
		Owner:         &owner,
		Author:        owner,
		Location:      location,
		CreatedAt:     createdAt,
		LikeCount:     s.rng.Intn(MaxCatchLikes + 1),
		LikedByViewer: false,
		Comments:      []domain.Comment{},
		Caption:       CatchCaption(creature, location),
	}

	next := make([]domain.Post, 0, len(s.posts)+1)
	next = append(next, post)
	next = append(next, s.posts...)
	s.posts = next
	s.pending = nil
	s.persistPosts()
	s.persistPending()
	count, snapshot := len(s.posts), clonePosts(s.posts)
	s.mu.Unlock()

	s.logger.Info("Creature caught",
		zap.String("post_id", post.ID),
		zap.String("name", creature.Name),
		zap.String("location", location))
	s.trainer.CollectionChanged(count)
	return clonePost(post), snapshot
}

// ToggleLike flips the viewer's like on an owned post and moves the like
// count with it. Toggling twice restores the original pair.
func (s *Store) ToggleLike(postID string) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(postID)
	if idx < 0 {
		return clonePosts(s.posts), fmt.Errorf("%w: post %s", domain.ErrNotFound, postID)
	}

	next := clonePosts(s.posts)
	p := &next[idx]
	if p.LikedByViewer {
		p.LikedByViewer = false
		p.LikeCount--
	} else {
		p.LikedByViewer = true
		p.LikeCount++
	}
	s.posts = next
	s.persistPosts()
	return clonePosts(s.posts), nil
}

// Release removes a post permanently. Unknown ids are a no-op.
func (s *Store) Release(postID string) []domain.Post {
	s.mu.Lock()
	idx := s.indexOf(postID)
	if idx < 0 {
		snapshot := clonePosts(s.posts)
		s.mu.Unlock()
		return snapshot
	}

	next := make([]domain.Post, 0, len(s.posts)-1)
	next = append(next, s.posts[:idx]...)
	next = append(next, s.posts[idx+1:]...)
	s.posts = next
	s.persistPosts()
	count, snapshot := len(s.posts), clonePosts(s.posts)
	s.mu.Unlock()

	s.logger.Info("Creature released", zap.String("post_id", postID))
	s.trainer.CollectionChanged(count)
	return snapshot
}

func (s *Store) indexOf(postID string) int {
	for i, p := range s.posts {
		if p.ID == postID {
			return i
		}
	}
	return -1
}

// nextTimestamp is strictly increasing so ids never collide, even when two
// catches land on the same clock reading.
func (s *Store) nextTimestamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastIssued) {
		t = s.lastIssued.Add(time.Nanosecond)
	}
	s.lastIssued = t
	return t
}

func (s *Store) persistPosts() {
	data, err := json.Marshal(s.posts)
	if err != nil {
		s.logger.Error("Failed to encode caught collection", zap.Error(err))
		return
	}
	if err := s.kv.Set(KeyCaught, string(data)); err != nil {
		s.logger.Warn("Failed to persist caught collection", zap.Error(err), zap.Int("posts", len(s.posts)))
	}
}

func (s *Store) persistPending() {
	if s.pending == nil {
		if err := s.kv.Remove(KeyPending); err != nil {
			s.logger.Warn("Failed to clear pending encounter", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(s.pending)
	if err != nil {
		s.logger.Error("Failed to encode pending encounter", zap.Error(err))
		return
	}
	if err := s.kv.Set(KeyPending, string(data)); err != nil {
		s.logger.Warn("Failed to persist pending encounter", zap.Error(err))
	}
}

func CatchCaption(c domain.Creature, location string) string {
	return fmt.Sprintf("Just caught a wild %s in %s! 🎉✨", c.DisplayName(), location)
}

func cloneCreature(c domain.Creature) domain.Creature {
	if c.Types != nil {
		c.Types = append([]string{}, c.Types...)
	}
	return c
}

func clonePost(p domain.Post) domain.Post {
	p.Creature = cloneCreature(p.Creature)
	if p.Owner != nil {
		owner := *p.Owner
		p.Owner = &owner
	}
	if p.Comments != nil {
		p.Comments = append([]domain.Comment{}, p.Comments...)
	}
	return p
}

func clonePosts(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, len(posts))
	for i, p := range posts {
		out[i] = clonePost(p)
	}
	return out
}
