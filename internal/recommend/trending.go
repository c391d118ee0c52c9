package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Timeframe is the engagement window for trending jobs.
type Timeframe string

// Supported trending timeframes.
const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
)

// Duration returns the window length, or false for an unknown timeframe.
func (t Timeframe) Duration() (time.Duration, bool) {
	switch t {
	case Timeframe24h:
		return 24 * time.Hour, true
	case Timeframe7d:
		return 7 * 24 * time.Hour, true
	case Timeframe30d:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// JobEngagement is one job's engagement counts within a window, aggregated
// from feedback events by the store.
type JobEngagement struct {
	Job          TrendingJobRef `json:"job"`
	Views        int            `json:"views"`
	Applications int            `json:"applications"`
}

// TrendingJobRef carries the job fields a trending list needs.
type TrendingJobRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

// TrendingJob is one entry in a trending list.
type TrendingJob struct {
	Job          TrendingJobRef `json:"job"`
	Views        int            `json:"views"`
	Applications int            `json:"applications"`
	// Velocity is engagements per hour over the window.
	Velocity float64 `json:"velocity"`
}

// trendingCacheTTL bounds staleness of cached trending lists.
const trendingCacheTTL = 10 * time.Minute

// Trending ranks jobs in region by engagement velocity within the timeframe.
// The list is user-independent and therefore cacheable.
func (e *Engine) Trending(ctx context.Context, region string, timeframe Timeframe, limit int) ([]TrendingJob, Metadata, error) {
	meta := Metadata{Algorithm: "trending", Version: AlgorithmVersion, GeneratedAt: time.Now()}

	window, ok := timeframe.Duration()
	if !ok {
		return nil, meta, &ErrValidation{Field: "timeframe", Message: fmt.Sprintf("unknown timeframe %q", timeframe)}
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	if cached, ok := e.cache.get(ctx, region, timeframe); ok {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, meta, nil
	}

	engagements, err := e.store.CountEngagement(ctx, region, time.Now().Add(-window), candidateJobLimit)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to aggregate engagement: %w", err)
	}

	hours := window.Hours()
	trending := make([]TrendingJob, 0, len(engagements))
	for _, eng := range engagements {
		total := eng.Views + eng.Applications
		if total == 0 {
			continue
		}
		trending = append(trending, TrendingJob{
			Job:          eng.Job,
			Views:        eng.Views,
			Applications: eng.Applications,
			Velocity:     float64(total) / hours,
		})
	}

	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].Velocity > trending[j].Velocity
	})

	e.cache.put(ctx, region, timeframe, trending)

	if len(trending) > limit {
		trending = trending[:limit]
	}
	return trending, meta, nil
}

// TrendingCache caches computed trending lists in redis. A nil cache, or a
// redis hiccup, silently falls through to the store aggregation.
type TrendingCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewTrendingCache creates a TrendingCache. rdb may be nil.
func NewTrendingCache(rdb *redis.Client, logger *zap.Logger) *TrendingCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendingCache{rdb: rdb, logger: logger}
}

func trendingKey(region string, timeframe Timeframe) string {
	return fmt.Sprintf("trending:%s:%s", region, timeframe)
}

func (c *TrendingCache) get(ctx context.Context, region string, timeframe Timeframe) ([]TrendingJob, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, trendingKey(region, timeframe)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("trending cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var jobs []TrendingJob
	if err := json.Unmarshal(raw, &jobs); err != nil {
		c.logger.Warn("trending cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return jobs, true
}

func (c *TrendingCache) put(ctx context.Context, region string, timeframe Timeframe, jobs []TrendingJob) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(jobs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, trendingKey(region, timeframe), raw, trendingCacheTTL).Err(); err != nil {
		c.logger.Warn("trending cache write failed", zap.Error(err))
	}
}
