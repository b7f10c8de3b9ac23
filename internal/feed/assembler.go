// Package feed assembles the rendered feed and produces synthetic community posts.
package feed

import (
	"sort"

	"github.com/camy47/pokesocial/internal/core/domain"
)

// Assemble merges the collection with the synthetic pool for the given tab
// and orders the result newest first. The profile tab shows the collection
// only. Inputs are not modified and nothing is cached.
func Assemble(collection, synthetic []domain.Post, tab domain.Tab) []domain.Post {
	out := make([]domain.Post, 0, len(collection)+len(synthetic))
	out = append(out, collection...)
	if tab != domain.TabProfile {
		out = append(out, synthetic...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
