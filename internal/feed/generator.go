package feed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 10
	DefaultInterval    = 5 * time.Minute
	DefaultParallelism = 2

	minSyntheticLikes = 50
	maxSyntheticLikes = 1049
	maxComments       = 5
	postWindow        = 24 * time.Hour
	commentWindow     = time.Hour
)

// Generator builds batches of synthetic community posts.
type Generator struct {
	Creatures   ports.CreatureSource
	People      ports.PersonSource
	Captioner   ports.Captioner // optional
	Logger      *zap.Logger
	BatchSize   int
	Interval    time.Duration
	Parallelism int

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

func NewGenerator(creatures ports.CreatureSource, people ports.PersonSource, logger *zap.Logger) *Generator {
	return &Generator{
		Creatures:   creatures,
		People:      people,
		Logger:      logger,
		BatchSize:   DefaultBatchSize,
		Interval:    DefaultInterval,
		Parallelism: DefaultParallelism,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

// Seed makes the drawn ids, locations, times and likes reproducible.
func (g *Generator) Seed(rng *rand.Rand, now func() time.Time) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	g.rng = rng
	g.now = now
}

// slotPlan is everything a slot needs that does not come from the network.
type slotPlan struct {
	creatureID int
	location   string
	createdAt  time.Time
	likes      int
	liked      bool
	comments   []domain.Comment
}

func (g *Generator) plan(n int) []slotPlan {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()

	now := g.now().UTC()
	plans := make([]slotPlan, n)
	for i := range plans {
		createdAt := now.Add(-time.Duration(g.rng.Int63n(int64(postWindow))))
		p := slotPlan{
			creatureID: g.rng.Intn(domain.MaxCreatureID) + 1,
			location:   Locations[g.rng.Intn(len(Locations))],
			createdAt:  createdAt,
			likes:      minSyntheticLikes + g.rng.Intn(maxSyntheticLikes-minSyntheticLikes+1),
			liked:      g.rng.Float64() > 0.5,
		}
		count := g.rng.Intn(maxComments) + 1
		p.comments = make([]domain.Comment, count)
		for j := range p.comments {
			p.comments[j] = domain.Comment{
				ID:        uuid.NewString(),
				Author:    Cast[g.rng.Intn(len(Cast))],
				Text:      CommentLines[g.rng.Intn(len(CommentLines))],
				CreatedAt: createdAt.Add(-time.Duration(g.rng.Int63n(int64(commentWindow)))),
			}
		}
		plans[i] = p
	}
	return plans
}

// Generate produces up to BatchSize posts. A slot whose creature or person
// lookup fails is dropped; Generate itself never fails.
func (g *Generator) Generate(ctx context.Context) []domain.Post {
	plans := g.plan(g.BatchSize)
	results := make([]*domain.Post, len(plans))

	eg, egCtx := errgroup.WithContext(ctx)
	if g.Parallelism > 0 {
		eg.SetLimit(g.Parallelism)
	}
	for i, p := range plans {
		eg.Go(func() error {
			post, err := g.buildSlot(egCtx, p)
			if err != nil {
				g.Logger.Warn("Dropping synthetic post slot", zap.Int("slot", i), zap.Error(err))
				return nil
			}
			results[i] = &post
			return nil
		})
	}
	_ = eg.Wait()

	posts := make([]domain.Post, 0, len(results))
	for _, r := range results {
		if r != nil {
			posts = append(posts, *r)
		}
	}
	return posts
}

func (g *Generator) buildSlot(ctx context.Context, p slotPlan) (domain.Post, error) {
	creature, err := g.Creatures.GetCreature(ctx, p.creatureID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("creature %d: %w", p.creatureID, err)
	}
	author, err := g.People.RandomPerson(ctx)
	if err != nil {
		return domain.Post{}, fmt.Errorf("person: %w", err)
	}

	return domain.Post{
		ID:            domain.PostID(creature.ID, p.createdAt),
		Creature:      creature,
		Owner:         nil,
		Author:        author,
		Location:      p.location,
		CreatedAt:     p.createdAt,
		LikeCount:     p.likes,
		LikedByViewer: p.liked,
		Comments:      p.comments,
		Caption:       g.caption(ctx, creature, p.location),
	}, nil
}

func (g *Generator) caption(ctx context.Context, c domain.Creature, location string) string {
	fallback := EncounterCaption(c, location)
	if g.Captioner == nil {
		return fallback
	}
	text, err := g.Captioner.WriteCaption(ctx, c, location)
	text = strings.TrimSpace(text)
	if err != nil || text == "" || !strings.Contains(text, location) {
		if err != nil {
			g.Logger.Debug("Caption writer failed, using template", zap.Error(err))
		}
		return fallback
	}
	return text
}

func EncounterCaption(c domain.Creature, location string) string {
	return fmt.Sprintf("Just encountered this amazing %s in %s! 🌟✨", c.DisplayName(), location)
}

// Run refreshes pool immediately and then every Interval until ctx is
// cancelled. A batch that finishes after cancellation is discarded.
func (g *Generator) Run(ctx context.Context, pool *Pool) {
	g.refresh(ctx, pool)

	ticker := time.NewTicker(g.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.refresh(ctx, pool)
		case <-ctx.Done():
			g.Logger.Debug("Synthetic feed stopped")
			return
		}
	}
}

func (g *Generator) refresh(ctx context.Context, pool *Pool) {
	gen := pool.Begin()
	posts := g.Generate(ctx)
	if pool.Apply(ctx, gen, posts) {
		g.Logger.Info("Synthetic feed refreshed", zap.Int("posts", len(posts)), zap.Uint64("generation", gen))
		return
	}
	g.Logger.Debug("Discarded stale synthetic batch", zap.Uint64("generation", gen))
}
