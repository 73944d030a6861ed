package utils_test

import (
	"testing"
	"time"

	"campuslink/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiresAgainstCallerClock(t *testing.T) {
	t.Parallel()

	cache, err := utils.NewTTLCache[string, int](2)
	require.NoError(t, err)

	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	cache.Set("a", 1, now.Add(time.Minute))

	v, ok := cache.Get("a", now.Add(59*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = cache.Get("a", now.Add(time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestTTLCacheEvictsOldest(t *testing.T) {
	t.Parallel()

	cache, err := utils.NewTTLCache[string, int](2)
	require.NoError(t, err)

	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	for i, key := range []string{"a", "b", "c"} {
		cache.Set(key, i, now.Add(time.Hour))
	}
	_, ok := cache.Get("a", now)
	assert.False(t, ok)
	_, ok = cache.Get("c", now)
	assert.True(t, ok)

	cache.Delete("c")
	_, ok = cache.Get("c", now)
	assert.False(t, ok)
}

func TestTrustBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{100, "매우 신뢰"},
		{80, "매우 신뢰"},
		{53, "보통"},
		{50, "보통"},
		{39, "주의"},
		{-10, "위험"},
	}
	for _, tt := range tests {
		name, _ := utils.TrustBand(tt.score)
		assert.Equal(t, tt.want, name, "score %d", tt.score)
	}
}

func TestIntOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, utils.IntOr("20", 50))
	assert.Equal(t, 50, utils.IntOr("", 50))
	assert.Equal(t, 50, utils.IntOr("many", 50))
}

func TestDaysSince(t *testing.T) {
	t.Parallel()

	joined := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 15, utils.DaysSince(joined, joined.Add(15*24*time.Hour+time.Hour)))
	assert.Equal(t, 0, utils.DaysSince(joined, joined.Add(-time.Hour)))
}
