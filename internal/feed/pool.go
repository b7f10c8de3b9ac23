package feed

import (
	"context"
	"sync"

	"github.com/camy47/pokesocial/internal/core/domain"
)

// Pool holds the latest batch of synthetic posts. Each refresh takes a
// generation token with Begin; a batch is applied only while its token is
// the newest one and its context is still live.
type Pool struct {
	mu         sync.RWMutex
	posts      []domain.Post
	generation uint64
}

func NewPool() *Pool {
	return &Pool{posts: []domain.Post{}}
}

func (p *Pool) Begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	return p.generation
}

// Apply replaces the pool with posts and reports whether it did.
func (p *Pool) Apply(ctx context.Context, generation uint64, posts []domain.Post) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil || generation != p.generation {
		return false
	}
	p.posts = append([]domain.Post{}, posts...)
	return true
}

func (p *Pool) Posts() []domain.Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.Post{}, p.posts...)
}
