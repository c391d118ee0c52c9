package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframeDuration(t *testing.T) {
	d, ok := Timeframe24h.Duration()
	require.True(t, ok)
	assert.Equal(t, 24.0, d.Hours())

	d, ok = Timeframe7d.Duration()
	require.True(t, ok)
	assert.Equal(t, 7*24.0, d.Hours())

	d, ok = Timeframe30d.Duration()
	require.True(t, ok)
	assert.Equal(t, 30*24.0, d.Hours())

	_, ok = Timeframe("90d").Duration()
	assert.False(t, ok)
}

func TestTrending_RejectsUnknownTimeframe(t *testing.T) {
	engine := newTestEngine(newFakeStore(), nil, nil, nil)

	_, _, err := engine.Trending(context.Background(), "", Timeframe("yesterday"), 10)

	var validation *ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "timeframe", validation.Field)
}

func TestTrending_RanksByVelocity(t *testing.T) {
	store := newFakeStore()
	store.engagement = []JobEngagement{
		{Job: TrendingJobRef{ID: "quiet", Title: "Quiet Job"}, Views: 2, Applications: 0},
		{Job: TrendingJobRef{ID: "busy", Title: "Busy Job"}, Views: 40, Applications: 8},
		{Job: TrendingJobRef{ID: "dead", Title: "No Engagement"}, Views: 0, Applications: 0},
	}

	engine := newTestEngine(store, nil, nil, nil)
	jobs, meta, err := engine.Trending(context.Background(), "Modesto", Timeframe24h, 10)

	require.NoError(t, err)
	assert.Equal(t, "trending", meta.Algorithm)
	require.Len(t, jobs, 2) // zero-engagement jobs are dropped
	assert.Equal(t, "busy", jobs[0].Job.ID)
	assert.Equal(t, "quiet", jobs[1].Job.ID)
	assert.InDelta(t, 48.0/24.0, jobs[0].Velocity, 1e-9)
	assert.InDelta(t, 2.0/24.0, jobs[1].Velocity, 1e-9)
}

func TestTrending_LimitApplies(t *testing.T) {
	store := newFakeStore()
	store.engagement = []JobEngagement{
		{Job: TrendingJobRef{ID: "a"}, Views: 3},
		{Job: TrendingJobRef{ID: "b"}, Views: 2},
		{Job: TrendingJobRef{ID: "c"}, Views: 1},
	}

	engine := newTestEngine(store, nil, nil, nil)
	jobs, _, err := engine.Trending(context.Background(), "", Timeframe7d, 2)

	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestTrending_NilCacheFallsThrough(t *testing.T) {
	store := newFakeStore()
	store.engagement = []JobEngagement{{Job: TrendingJobRef{ID: "a"}, Views: 1}}

	// Engine constructed without redis still serves trending lists.
	engine := NewEngine(store, &fakeEmbeddings{}, &fakeJobVectors{}, &fakePrefs{}, nil, nil)
	jobs, _, err := engine.Trending(context.Background(), "", Timeframe24h, 10)

	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
