package feed_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func owned(id string, at time.Duration) domain.Post {
	return domain.Post{ID: id, Owner: &domain.Identity{Username: "Ash_Ketchum"}, CreatedAt: base.Add(at)}
}

func synthetic(id string, at time.Duration) domain.Post {
	return domain.Post{ID: id, Author: domain.Identity{Username: "stranger"}, CreatedAt: base.Add(at)}
}

func assertDescending(t *testing.T, posts []domain.Post) {
	t.Helper()
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt),
			"post %d (%s) is newer than post %d (%s)", i, posts[i].ID, i-1, posts[i-1].ID)
	}
}

func TestAssemble_ProfileTabShowsCollectionOnly(t *testing.T) {
	collection := []domain.Post{owned("a", time.Minute), owned("b", 3*time.Minute), owned("c", 2*time.Minute)}
	for _, poolSize := range []int{0, 1, 10, 100} {
		pool := make([]domain.Post, poolSize)
		for i := range pool {
			pool[i] = synthetic("s", time.Duration(i)*time.Second)
		}

		got := feed.Assemble(collection, pool, domain.TabProfile)
		require.Len(t, got, len(collection))
		assert.ElementsMatch(t, collection, got)
		for _, p := range got {
			assert.True(t, p.Owned())
		}
		assertDescending(t, got)
	}
}

func TestAssemble_HomeMergesAndSorts(t *testing.T) {
	collection := []domain.Post{owned("mine-new", 5*time.Hour), owned("mine-old", -5*time.Hour)}
	pool := []domain.Post{synthetic("s1", time.Hour), synthetic("s2", 6*time.Hour), synthetic("s3", -time.Hour)}

	got := feed.Assemble(collection, pool, domain.TabHome)
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"s2", "mine-new", "s1", "s3", "mine-old"}, ids)
	assertDescending(t, got)

	other := feed.Assemble(collection, pool, domain.Tab("explore"))
	assert.Len(t, other, 5)
}

func TestAssemble_StableOnTies(t *testing.T) {
	collection := []domain.Post{owned("first", 0), owned("second", 0)}
	pool := []domain.Post{synthetic("third", 0)}

	got := feed.Assemble(collection, pool, domain.TabHome)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestAssemble_DoesNotMutateInputs(t *testing.T) {
	collection := []domain.Post{owned("old", 0), owned("new", time.Hour)}
	feed.Assemble(collection, nil, domain.TabProfile)
	assert.Equal(t, "old", collection[0].ID)
}

type fakeCreatures struct {
	calls atomic.Int32
}

func (f *fakeCreatures) GetCreature(ctx context.Context, id int) (domain.Creature, error) {
	f.calls.Add(1)
	if id < 1 || id > domain.MaxCreatureID {
		return domain.Creature{}, fmt.Errorf("creature id %d out of range", id)
	}
	return domain.Creature{ID: id, Name: "missingno", SpriteURL: "s", Types: []string{"normal"}}, nil
}

// flakyPeople fails its first failures calls.
type flakyPeople struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyPeople) RandomPerson(ctx context.Context) (domain.Identity, error) {
	if f.calls.Add(1) <= f.failures {
		return domain.Identity{}, domain.ErrUpstreamUnavailable
	}
	return domain.Identity{Username: "bluefrog42", AvatarURL: "https://img.example/l.jpg"}, nil
}

func newGenerator(t *testing.T, creatures *fakeCreatures, people *flakyPeople) *feed.Generator {
	g := feed.NewGenerator(creatures, people, zaptest.NewLogger(t))
	g.Seed(rand.New(rand.NewSource(42)), func() time.Time { return base })
	return g
}

func TestGenerate_DropsFailedSlots(t *testing.T) {
	people := &flakyPeople{failures: 3}
	g := newGenerator(t, &fakeCreatures{}, people)

	posts := g.Generate(context.Background())
	require.Len(t, posts, 7)

	seen := map[string]bool{}
	for _, p := range posts {
		assert.Nil(t, p.Owner)
		assert.False(t, p.Owned())
		assert.Equal(t, "bluefrog42", p.Author.Username)
		assert.NotEmpty(t, p.ID)
		assert.False(t, seen[p.ID])
		seen[p.ID] = true

		assert.Contains(t, feed.Locations, p.Location)
		assert.Contains(t, p.Caption, p.Location)
		assert.False(t, p.CreatedAt.After(base))
		assert.True(t, p.CreatedAt.After(base.Add(-24*time.Hour)))
		assert.GreaterOrEqual(t, p.LikeCount, 50)
		assert.LessOrEqual(t, p.LikeCount, 1049)
		assert.GreaterOrEqual(t, p.Creature.ID, 1)
		assert.LessOrEqual(t, p.Creature.ID, domain.MaxCreatureID)

		require.GreaterOrEqual(t, len(p.Comments), 1)
		require.LessOrEqual(t, len(p.Comments), 5)
		for _, c := range p.Comments {
			assert.NotEmpty(t, c.ID)
			assert.Contains(t, feed.Cast, c.Author)
			assert.Contains(t, feed.CommentLines, c.Text)
			assert.False(t, c.CreatedAt.After(p.CreatedAt))
		}
	}
}

func TestGenerate_AllSlotsFailing(t *testing.T) {
	g := newGenerator(t, &fakeCreatures{}, &flakyPeople{failures: 100})
	assert.Empty(t, g.Generate(context.Background()))
}

type stubCaptioner struct {
	text string
	err  error
}

func (s stubCaptioner) WriteCaption(ctx context.Context, c domain.Creature, location string) (string, error) {
	return s.text, s.err
}

func TestGenerate_CaptionerOutputMustMentionLocation(t *testing.T) {
	tests := []struct {
		name      string
		captioner stubCaptioner
		written   bool
	}{
		{"error", stubCaptioner{err: errors.New("quota")}, false},
		{"empty", stubCaptioner{text: "  "}, false},
		{"no location", stubCaptioner{text: "What a find!"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, &fakeCreatures{}, &flakyPeople{})
			g.BatchSize = 3
			g.Captioner = tt.captioner
			for _, p := range g.Generate(context.Background()) {
				assert.Equal(t, feed.EncounterCaption(p.Creature, p.Location), p.Caption)
			}
		})
	}

	g := newGenerator(t, &fakeCreatures{}, &flakyPeople{})
	g.BatchSize = 3
	g.Captioner = locationEcho{}
	for _, p := range g.Generate(context.Background()) {
		assert.Equal(t, "Spotted near "+p.Location, p.Caption)
	}
}

type locationEcho struct{}

func (locationEcho) WriteCaption(ctx context.Context, c domain.Creature, location string) (string, error) {
	return "Spotted near " + location, nil
}

func TestPool_RejectsStaleAndCancelled(t *testing.T) {
	pool := feed.NewPool()
	ctx, cancel := context.WithCancel(context.Background())

	first := pool.Begin()
	second := pool.Begin()
	assert.False(t, pool.Apply(ctx, first, []domain.Post{synthetic("old", 0)}))
	assert.True(t, pool.Apply(ctx, second, []domain.Post{synthetic("new", 0)}))

	third := pool.Begin()
	cancel()
	assert.False(t, pool.Apply(ctx, third, []domain.Post{synthetic("late", 0)}))

	posts := pool.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "new", posts[0].ID)
}

// gatedCreatures blocks every lookup until release is closed, ignoring ctx.
type gatedCreatures struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedCreatures) GetCreature(ctx context.Context, id int) (domain.Creature, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return domain.Creature{ID: id, Name: "ditto", Types: []string{"normal"}}, nil
}

func TestRun_DiscardsBatchFinishingAfterCancel(t *testing.T) {
	creatures := &gatedCreatures{started: make(chan struct{}), release: make(chan struct{})}
	g := feed.NewGenerator(creatures, &flakyPeople{}, zaptest.NewLogger(t))
	pool := feed.NewPool()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, pool)
		close(done)
	}()

	<-creatures.started
	cancel()
	close(creatures.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generator did not stop after cancellation")
	}
	assert.Empty(t, pool.Posts())
}

func TestRun_RefreshesOnInterval(t *testing.T) {
	creatures := &fakeCreatures{}
	g := newGenerator(t, creatures, &flakyPeople{})
	g.BatchSize = 1
	g.Interval = 10 * time.Millisecond
	pool := feed.NewPool()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, pool)
		close(done)
	}()

	assert.Eventually(t, func() bool { return creatures.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, pool.Posts(), 1)

	cancel()
	<-done
}
