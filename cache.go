package cs4teachers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SiteCache is an in-memory cache of the published content shown on public
// listing pages, refreshed after a TTL or on Invalidate.
type SiteCache struct {
	mu      sync.RWMutex
	snap    *siteSnapshot
	fetched time.Time
	ttl     time.Duration
	store   *Store
	now     func() time.Time
	onLoad  func()
}

type siteSnapshot struct {
	events     []Event
	thirdParty []ThirdPartyEvent
	series     []Series
	resources  []Resource
}

// NewSiteCache creates a SiteCache backed by the given Store.
func NewSiteCache(s *Store, ttl time.Duration) *SiteCache {
	return &SiteCache{store: s, ttl: ttl, now: time.Now}
}

func (c *SiteCache) valid() bool {
	return c.snap != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SiteCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *SiteCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	var snap siteSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.events, err = c.store.ListEvents(gctx, EventFilter{PublishedOnly: true})
		return err
	})
	g.Go(func() (err error) {
		snap.thirdParty, err = c.store.ListThirdPartyEvents(gctx, EventFilter{PublishedOnly: true})
		return err
	})
	g.Go(func() (err error) {
		snap.series, err = c.store.ListSeries(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		snap.resources, err = c.store.ListResources(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	c.snap = &snap
	c.fetched = c.now()
	if c.onLoad != nil {
		c.onLoad()
	}
	return nil
}

// ensureLoaded returns the cached snapshot after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *SiteCache) ensureLoaded(ctx context.Context) (*siteSnapshot, error) {
	c.mu.RLock()
	if c.valid() {
		snap := c.snap
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.snap, nil
}

// Events returns published events ordered by start date.
func (c *SiteCache) Events(ctx context.Context) ([]Event, error) {
	snap, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return snap.events, nil
}

// UpcomingEvents returns published events that have not ended before today.
func (c *SiteCache) UpcomingEvents(ctx context.Context, today time.Time) ([]Event, error) {
	events, err := c.Events(ctx)
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range events {
		if DaysDifference(e.StartDate, e.EndDate, today) >= 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

// PastEvents returns published events that ended before today, most recent first.
func (c *SiteCache) PastEvents(ctx context.Context, today time.Time) ([]Event, error) {
	events, err := c.Events(ctx)
	if err != nil {
		return nil, err
	}
	var out []Event
	for i := len(events) - 1; i >= 0; i-- {
		if DaysDifference(events[i].StartDate, events[i].EndDate, today) < 0 {
			out = append(out, events[i])
		}
	}
	return out, nil
}

// SeriesEvents returns the published events of one series.
func (c *SiteCache) SeriesEvents(ctx context.Context, seriesID int64) ([]Event, error) {
	events, err := c.Events(ctx)
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range events {
		if e.SeriesID != nil && *e.SeriesID == seriesID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ClosestEvent picks the published event of a series most relevant to today.
func (c *SiteCache) ClosestEvent(ctx context.Context, seriesID int64, today time.Time) (Event, bool, error) {
	events, err := c.SeriesEvents(ctx, seriesID)
	if err != nil {
		return Event{}, false, err
	}
	ev, ok := FindClosestEvent(events, today)
	return ev, ok, nil
}

// UpcomingThirdPartyEvents returns published third party events that have
// not ended before today.
func (c *SiteCache) UpcomingThirdPartyEvents(ctx context.Context, today time.Time) ([]ThirdPartyEvent, error) {
	snap, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	var out []ThirdPartyEvent
	for _, e := range snap.thirdParty {
		if DaysDifference(e.StartDate, e.EndDate, today) >= 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

// ThirdPartyEvents returns all published third party events.
func (c *SiteCache) ThirdPartyEvents(ctx context.Context) ([]ThirdPartyEvent, error) {
	snap, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return snap.thirdParty, nil
}

// Series returns all series ordered by name.
func (c *SiteCache) Series(ctx context.Context) ([]Series, error) {
	snap, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return snap.series, nil
}

// SeriesBySlug returns a single series from the cache.
func (c *SiteCache) SeriesBySlug(ctx context.Context, slug string) (Series, error) {
	series, err := c.Series(ctx)
	if err != nil {
		return Series{}, err
	}
	for _, s := range series {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Series{}, ErrNotFound
}

// Resources returns all resources ordered by name.
func (c *SiteCache) Resources(ctx context.Context) ([]Resource, error) {
	snap, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return snap.resources, nil
}
