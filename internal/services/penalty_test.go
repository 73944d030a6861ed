package services_test

import (
	"testing"
	"time"

	"campuslink/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisPenalties(t *testing.T) (*services.RedisPenaltyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return services.NewRedisPenaltyStore(client), mr
}

func TestPenaltyStores(t *testing.T) {
	t.Parallel()

	memory, err := services.NewMemoryPenaltyStore(10)
	require.NoError(t, err)
	redisStore, _ := newRedisPenalties(t)

	stores := map[string]services.PenaltyStore{
		"memory": memory,
		"redis":  redisStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := testContext(t)
			now := time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)
			until := now.Add(time.Minute)

			_, active, err := store.Until(ctx, "rider|campus|to_station", now)
			require.NoError(t, err)
			assert.False(t, active)

			require.NoError(t, store.Start(ctx, "rider|campus|to_station", now, until))

			got, active, err := store.Until(ctx, "rider|campus|to_station", now.Add(30*time.Second))
			require.NoError(t, err)
			assert.True(t, active)
			assert.True(t, until.Equal(got))

			_, active, err = store.Until(ctx, "rider|campus|to_station", until)
			require.NoError(t, err)
			assert.False(t, active)
		})
	}
}

func TestRedisPenaltyStoreSetsExpiry(t *testing.T) {
	t.Parallel()
	store, mr := newRedisPenalties(t)
	now := time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)

	require.NoError(t, store.Start(testContext(t), "rider|campus|to_station", now, now.Add(time.Minute)))
	assert.Equal(t, time.Minute, mr.TTL("campuslink:shuttle:penalty:rider|campus|to_station"))

	mr.FastForward(time.Minute)
	_, active, err := store.Until(testContext(t), "rider|campus|to_station", now)
	require.NoError(t, err)
	assert.False(t, active)

	// An already elapsed penalty is not stored
	require.NoError(t, store.Start(testContext(t), "other|campus|to_station", now, now))
	assert.False(t, mr.Exists("campuslink:shuttle:penalty:other|campus|to_station"))
}

func TestRedisPenaltyStoreSurfacesOutage(t *testing.T) {
	t.Parallel()
	store, mr := newRedisPenalties(t)
	mr.Close()

	_, _, err := store.Until(testContext(t), "rider|campus|to_station", time.Now())
	assert.Error(t, err)
}

func TestShuttleWithRedisPenalties(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "rider")
	store, _ := newRedisPenalties(t)
	shuttle, _ := newShuttle(t, f, store)
	ctx := testContext(t)

	require.NoError(t, shuttle.Reserve(ctx, slotAt("10:20"), "rider"))
	require.NoError(t, shuttle.Cancel(ctx, slotAt("10:20"), "rider"))

	// A fresh service over the same store still sees the penalty
	restarted, _ := newShuttle(t, f, store)
	assert.ErrorIs(t, restarted.Reserve(ctx, slotAt("10:20"), "rider"), services.ErrPenaltyActive)
}
