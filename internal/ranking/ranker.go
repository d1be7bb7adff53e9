// Package ranking scores a subject portrait against many actors at once.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

// DefaultWorkers bounds concurrent actor portrait resolution.
const DefaultWorkers = 4

// Candidate is an actor that may be ranked.
type Candidate struct {
	ID      string
	Name    string
	Type    string
	Country string
}

// Ranked is one row of a ranking.
type Ranked struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Country string `json:"country,omitempty"`
	Overall int    `json:"overall"`
	Label   string `json:"label"`
	Color   string `json:"color"`
}

// PortraitSource resolves the portrait of an actor.
type PortraitSource func(ctx context.Context, actorID string) (portrait.Portrait, error)

// CandidateLoader lists the actors eligible for a ranking.
type CandidateLoader func(ctx context.Context) ([]Candidate, error)

// Ranker ranks actors by overall alignment with a subject.
type Ranker struct {
	workers int
	source  PortraitSource
	cache   *ResultCache
}

// NewRanker creates a ranker. cache may be nil.
func NewRanker(source PortraitSource, workers int, cache *ResultCache) *Ranker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Ranker{workers: workers, source: source, cache: cache}
}

// Rank scores every candidate against user, sorts by overall alignment
// descending then name, and keeps the first limit rows (all when limit <= 0).
// Results are cached per portrait, country and limit; candidates are only
// loaded on a cache miss.
func (r *Ranker) Rank(ctx context.Context, user portrait.Portrait, country string, limit int, load CandidateLoader) ([]Ranked, error) {
	if cached, ok := r.cache.Get(user, country, limit); ok {
		return cached, nil
	}

	candidates, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	ranked, err := r.score(ctx, user, candidates)
	if err != nil {
		return nil, err
	}

	Sort(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	r.cache.Set(user, country, limit, ranked)
	return ranked, nil
}

func (r *Ranker) score(ctx context.Context, user portrait.Portrait, candidates []Candidate) ([]Ranked, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			other, err := r.source(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("actor %s: %w", c.ID, err)
			}
			overall := portrait.OverallAlignment(user, other)
			ranked[i] = Ranked{
				ActorID: c.ID,
				Name:    c.Name,
				Type:    c.Type,
				Country: c.Country,
				Overall: overall,
				Label:   portrait.AlignmentLabel(overall),
				Color:   portrait.AlignmentColor(overall),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ranked, nil
}

// Sort orders rows by overall alignment descending, ties broken by name.
func Sort(rows []Ranked) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Overall != rows[j].Overall {
			return rows[i].Overall > rows[j].Overall
		}
		return rows[i].Name < rows[j].Name
	})
}

// Invalidate drops cached rankings.
func (r *Ranker) Invalidate() {
	r.cache.InvalidateAll()
}
