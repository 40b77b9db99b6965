package cs4teachers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteCacheServesStaleUntilTTLOrInvalidate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewSiteCache(s, time.Minute)
	c.now = func() time.Time { return clock }

	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	testEvent(t, s, "First", nil, day, true)

	events, err := c.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	testEvent(t, s, "Second", nil, day, true)
	events, err = c.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1, "cached snapshot should be reused within the TTL")

	clock = clock.Add(2 * time.Minute)
	events, err = c.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	testEvent(t, s, "Third", nil, day, true)
	c.Invalidate()
	events, err = c.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestSiteCacheUpcomingAndPast(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	testEvent(t, s, "Long ago", nil, today.AddDate(0, -2, 0), true)
	testEvent(t, s, "Last week", nil, today.AddDate(0, 0, -7), true)
	testEvent(t, s, "Today", nil, today, true)
	testEvent(t, s, "Next week", nil, today.AddDate(0, 0, 7), true)
	testEvent(t, s, "Hidden", nil, today.AddDate(0, 0, 3), false)

	c := NewSiteCache(s, time.Minute)
	upcoming, err := c.UpcomingEvents(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Next week"}, eventNames(upcoming))

	past, err := c.PastEvents(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"Last week", "Long ago"}, eventNames(past))
}

func TestSiteCacheSeries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sr := Series{Name: "Roadshow", Description: "On tour"}
	require.NoError(t, s.CreateSeries(ctx, &sr))
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	testEvent(t, s, "Stop 1", &sr.ID, today.AddDate(0, 0, -3), true)
	testEvent(t, s, "Stop 2", &sr.ID, today.AddDate(0, 0, 4), true)
	testEvent(t, s, "Elsewhere", nil, today.AddDate(0, 0, 1), true)

	c := NewSiteCache(s, time.Minute)
	got, err := c.SeriesBySlug(ctx, "roadshow")
	require.NoError(t, err)
	assert.Equal(t, sr.ID, got.ID)

	_, err = c.SeriesBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	inSeries, err := c.SeriesEvents(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stop 1", "Stop 2"}, eventNames(inSeries))

	closest, ok, err := c.ClosestEvent(ctx, sr.ID, today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Stop 2", closest.Name)
}

func TestSiteCacheThirdPartyAndResources(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	for i, offset := range []int{-5, 5} {
		e := ThirdPartyEvent{
			Name: []string{"Over", "Soon"}[i], Description: "x", URL: "https://example.org/",
			StartDate: today.AddDate(0, 0, offset), EndDate: today.AddDate(0, 0, offset), IsPublished: true,
		}
		require.NoError(t, s.CreateThirdPartyEvent(ctx, &e))
	}
	require.NoError(t, s.CreateResource(ctx, &Resource{Name: "Guide", URL: "https://example.org/guide"}))

	c := NewSiteCache(s, time.Minute)
	all, err := c.ThirdPartyEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := c.UpcomingThirdPartyEvents(ctx, today)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Soon", upcoming[0].Name)

	resources, err := c.Resources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "guide", resources[0].Slug)
}
