package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safewalk/server/internal/lib/geo"
)

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestCache_SetAndGet(t *testing.T) {
	c := New()

	err := c.Set("k1", payload{Name: "downtown loop", Score: 0.4}, time.Minute, "routes")
	require.NoError(t, err)

	var got payload
	found, err := c.Get("k1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "downtown loop", got.Name)
	assert.Equal(t, 0.4, got.Score)
}

func TestCache_MissingKey(t *testing.T) {
	c := New()

	var got payload
	found, err := c.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, c.IsStale("nope"))
	assert.True(t, c.IsVeryStale("nope"))
}

func TestCache_Expiration(t *testing.T) {
	c := New()

	require.NoError(t, c.Set("k1", payload{Name: "a"}, -time.Second, "routes"))

	var got payload
	found, err := c.Get("k1", &got)
	require.NoError(t, err)
	assert.False(t, found, "Expired entries must not be returned by Get")
	assert.True(t, c.IsStale("k1"))

	// Stale but within 2x TTL remains retrievable via GetWithMetadata
	entry, exists, err := c.GetWithMetadata("k1", &got)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "a", got.Name)
	assert.NotNil(t, entry)
}

func TestCache_VeryStale(t *testing.T) {
	c := New()

	require.NoError(t, c.Set("fresh", payload{}, time.Minute, "routes"))
	assert.False(t, c.IsVeryStale("fresh"))

	require.NoError(t, c.Set("old", payload{}, -time.Second, "routes"))
	assert.True(t, c.IsVeryStale("old"))
}

func TestCache_CleanupStale(t *testing.T) {
	c := New()

	require.NoError(t, c.Set("keep", payload{}, time.Minute, "routes"))
	require.NoError(t, c.Set("drop1", payload{}, -time.Second, "routes"))
	require.NoError(t, c.Set("drop2", payload{}, -time.Second, "search"))

	removed := c.CleanupStale()
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"keep"}, c.Keys())
}

func TestCache_Stats(t *testing.T) {
	c := New()

	require.NoError(t, c.Set("fresh", payload{}, time.Minute, "routes"))
	require.NoError(t, c.Set("stale", payload{}, -time.Second, "routes"))

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.FreshEntries)
	assert.Equal(t, 1, stats.StaleEntries)
	assert.False(t, stats.OldestEntry.IsZero())
}

func TestRouteKey(t *testing.T) {
	origin := geo.Point{Latitude: 38.06741, Longitude: -120.54022}
	dest := geo.Point{Latitude: 38.13273, Longitude: -120.46068}

	key := RouteKey(origin, dest, "balanced")
	assert.Equal(t, "route:38.0674,-120.5402:38.1327,-120.4607:balanced", key)

	// Nearby coordinates collapse to the same key
	nudged := geo.Point{Latitude: 38.06742, Longitude: -120.54018}
	assert.Equal(t, key, RouteKey(nudged, dest, "balanced"))

	assert.NotEqual(t, key, RouteKey(origin, dest, "safest"))
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "search:Murphys CA", SearchKey("Murphys CA"))
}
