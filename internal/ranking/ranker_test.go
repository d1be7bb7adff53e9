package ranking

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ZanzyTHEbar/value-compass/internal/cache"
	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

func TestMain(m *testing.M) {
	// The expirable LRU runs a janitor goroutine that has no stop method.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/hashicorp/golang-lru/v2/expirable.NewLRU[...].func1"),
	)
}

var dims = []string{"liberty_authority"}

func userPortrait() portrait.Portrait {
	return portrait.Portrait{Entries: []portrait.Entry{
		{Dimension: "liberty_authority", Position: 100, Intensity: 100, Confidence: 80},
	}}
}

type fixture struct {
	positions map[string]float64
	calls     atomic.Int32
}

func newFixture() *fixture {
	return &fixture{positions: map[string]float64{
		"xavier": 100,
		"alpha":  100,
		"middle": 0,
		"far":    -100,
	}}
}

func (f *fixture) source(ctx context.Context, id string) (portrait.Portrait, error) {
	f.calls.Add(1)
	p, ok := f.positions[id]
	if !ok {
		return portrait.Portrait{}, errors.New("unknown actor")
	}
	return portrait.FromPositions(map[string]float64{"liberty_authority": p}, dims), nil
}

func (f *fixture) load(ctx context.Context) ([]Candidate, error) {
	return []Candidate{
		{ID: "far", Name: "Far"},
		{ID: "xavier", Name: "Xavier"},
		{ID: "middle", Name: "Middle"},
		{ID: "alpha", Name: "Alpha"},
	}, nil
}

func TestRankOrdersByAlignmentThenName(t *testing.T) {
	f := newFixture()
	r := NewRanker(f.source, 2, nil)

	ranked, err := r.Rank(context.Background(), userPortrait(), "", 0, f.load)
	require.NoError(t, err)

	names := make([]string, 0, len(ranked))
	scores := make([]int, 0, len(ranked))
	for _, row := range ranked {
		names = append(names, row.Name)
		scores = append(scores, row.Overall)
	}
	assert.Equal(t, []string{"Alpha", "Xavier", "Middle", "Far"}, names)
	assert.Equal(t, []int{100, 100, 50, 0}, scores)
	assert.Equal(t, "Strong Alignment", ranked[0].Label)
	assert.Equal(t, "red", ranked[3].Color)
}

func TestRankLimit(t *testing.T) {
	f := newFixture()
	r := NewRanker(f.source, 0, nil)

	ranked, err := r.Rank(context.Background(), userPortrait(), "", 2, f.load)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Alpha", ranked[0].Name)
	assert.Equal(t, "Xavier", ranked[1].Name)
}

func TestRankUsesCache(t *testing.T) {
	f := newFixture()
	metrics := monitoring.NewMetrics()
	r := NewRanker(f.source, 4, NewResultCache(cache.NewCache(16, time.Minute), metrics))

	first, err := r.Rank(context.Background(), userPortrait(), "United States", 3, f.load)
	require.NoError(t, err)
	assert.Equal(t, int32(4), f.calls.Load())

	second, err := r.Rank(context.Background(), userPortrait(), "United States", 3, f.load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(4), f.calls.Load(), "second call is served from cache")

	_, err = r.Rank(context.Background(), userPortrait(), "United States", 2, f.load)
	require.NoError(t, err)
	assert.Equal(t, int32(8), f.calls.Load(), "limit is part of the key")

	r.Invalidate()
	_, err = r.Rank(context.Background(), userPortrait(), "United States", 3, f.load)
	require.NoError(t, err)
	assert.Equal(t, int32(12), f.calls.Load())
}

func TestRankPropagatesErrors(t *testing.T) {
	f := newFixture()
	r := NewRanker(f.source, 2, nil)

	_, err := r.Rank(context.Background(), userPortrait(), "", 0, func(ctx context.Context) ([]Candidate, error) {
		return []Candidate{{ID: "alpha"}, {ID: "ghost"}}, nil
	})
	assert.ErrorContains(t, err, "actor ghost")

	loadErr := errors.New("db down")
	_, err = r.Rank(context.Background(), userPortrait(), "", 0, func(ctx context.Context) ([]Candidate, error) {
		return nil, loadErr
	})
	assert.ErrorIs(t, err, loadErr)
}

func TestRankHonorsCancellation(t *testing.T) {
	f := newFixture()
	r := NewRanker(f.source, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rank(ctx, userPortrait(), "", 0, f.load)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls.Load())
}

func TestSort(t *testing.T) {
	rows := []Ranked{
		{Name: "b", Overall: 60},
		{Name: "a", Overall: 60},
		{Name: "c", Overall: 90},
	}
	Sort(rows)
	assert.Equal(t, "c", rows[0].Name)
	assert.Equal(t, "a", rows[1].Name)
	assert.Equal(t, "b", rows[2].Name)
}
