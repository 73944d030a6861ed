package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campuslink/internal/utils"

	"github.com/redis/go-redis/v9"
)

// PenaltyStore remembers when a user's shuttle cancellation penalty ends.
type PenaltyStore interface {
	// Start records a penalty ending at until.
	Start(ctx context.Context, key string, now, until time.Time) error
	// Until returns the end of an active penalty, or false when none is active at now.
	Until(ctx context.Context, key string, now time.Time) (time.Time, bool, error)
}

// penaltyKey scopes a penalty to one user on one route direction.
func penaltyKey(userID, route, direction string) string {
	return strings.Join([]string{userID, route, direction}, "|")
}

// MemoryPenaltyStore keeps penalties in process memory. A restart clears them.
type MemoryPenaltyStore struct {
	cache *utils.TTLCache[string, time.Time]
}

func NewMemoryPenaltyStore(size int) (*MemoryPenaltyStore, error) {
	cache, err := utils.NewTTLCache[string, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &MemoryPenaltyStore{cache: cache}, nil
}

func (s *MemoryPenaltyStore) Start(_ context.Context, key string, _, until time.Time) error {
	s.cache.Set(key, until, until)
	return nil
}

func (s *MemoryPenaltyStore) Until(_ context.Context, key string, now time.Time) (time.Time, bool, error) {
	until, ok := s.cache.Get(key, now)
	return until, ok, nil
}

const penaltyKeyPrefix = "campuslink:shuttle:penalty:"

// RedisPenaltyStore persists the penalty end time so it survives restarts and
// applies across devices.
type RedisPenaltyStore struct {
	client *redis.Client
}

func NewRedisPenaltyStore(client *redis.Client) *RedisPenaltyStore {
	return &RedisPenaltyStore{client: client}
}

func (s *RedisPenaltyStore) Start(ctx context.Context, key string, now, until time.Time) error {
	ttl := until.Sub(now)
	if ttl <= 0 {
		return nil
	}
	err := s.client.Set(ctx, penaltyKeyPrefix+key, until.UnixMilli(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store penalty: %w", err)
	}
	return nil
}

func (s *RedisPenaltyStore) Until(ctx context.Context, key string, now time.Time) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, penaltyKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read penalty: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt penalty value %q: %w", raw, err)
	}
	until := time.UnixMilli(ms)
	if !now.Before(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}
