package storage

import (
	"context"
	"testing"
	"time"

	"TodolistBot/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStorage(10, time.Hour)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	session, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !session.Idle() {
		t.Fatalf("unknown chat step = %s, want idle", session.Step)
	}

	want := models.Session{Step: models.StepAwaitingGoalTitle, CategoryID: 7}
	if err := s.Set(ctx, 1, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, 2, models.Session{Step: models.StepAwaitingCategory}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("session = %+v, want %+v", got, want)
	}
	other, err := s.Get(ctx, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if other.Step != models.StepAwaitingCategory {
		t.Fatalf("chat 2 step = %s, want awaiting_category", other.Step)
	}

	if err := s.Set(ctx, 1, models.Session{}); err != nil {
		t.Fatalf("set idle: %v", err)
	}
	if n := s.GetStats(ctx)["sessions"]; n != 1 {
		t.Fatalf("sessions = %v, want 1", n)
	}
}

func TestMemoryStorageExpires(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStorage(10, time.Minute)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, 1, models.Session{Step: models.StepAwaitingCategory}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, 2, models.Session{Step: models.StepAwaitingCategory}); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(2 * time.Minute)
	session, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !session.Idle() {
		t.Fatalf("expired session step = %s, want idle", session.Step)
	}

	s.CleanupExpiredData()
	if n := s.GetStats(ctx)["sessions"]; n != 0 {
		t.Fatalf("sessions after cleanup = %v, want 0", n)
	}
}

func TestMemoryStorageEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStorage(2, time.Hour)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	for chatID := int64(1); chatID <= 3; chatID++ {
		if err := s.Set(ctx, chatID, models.Session{Step: models.StepAwaitingCategory}); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	session, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !session.Idle() {
		t.Fatalf("evicted chat step = %s, want idle", session.Step)
	}
	if len(s.updatedAt) != 2 {
		t.Fatalf("tracked chats = %d, want 2", len(s.updatedAt))
	}
}

func newRedisStorage(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorage(client, ttl), mr
}

func TestRedisStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStorage(t, time.Hour)

	want := models.Session{Step: models.StepAwaitingGoalTitle, CategoryID: 3}
	if err := s.Set(ctx, 42, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("session = %+v, want %+v", got, want)
	}
	if !mr.Exists(sessionKey(42)) {
		t.Fatalf("key %s not stored", sessionKey(42))
	}
	if n := s.GetStats(ctx)["sessions"]; n != 1 {
		t.Fatalf("sessions = %v, want 1", n)
	}

	if err := s.Clear(ctx, 42); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Idle() {
		t.Fatalf("cleared session step = %s, want idle", got.Step)
	}
}

func TestRedisStorageExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStorage(t, time.Minute)

	if err := s.Set(ctx, 42, models.Session{Step: models.StepAwaitingCategory}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL(sessionKey(42)); ttl != time.Minute {
		t.Fatalf("ttl = %v, want %v", ttl, time.Minute)
	}

	mr.FastForward(2 * time.Minute)
	got, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Idle() {
		t.Fatalf("expired session step = %s, want idle", got.Step)
	}
}

func TestRedisStorageReportsErrors(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStorage(t, time.Minute)
	mr.Close()

	if _, err := s.Get(ctx, 42); err == nil {
		t.Fatalf("expected error from closed redis")
	}
}
