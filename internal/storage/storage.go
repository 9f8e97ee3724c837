package storage

import (
	"context"
	"sync"
	"time"

	"TodolistBot/pkg/models"

	"github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheSize       = 1000
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 5 * time.Minute
)

// SessionStore keeps the dialog state of each chat. A chat without a stored
// session is idle.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (models.Session, error)
	Set(ctx context.Context, chatID int64, session models.Session) error
	Clear(ctx context.Context, chatID int64) error
	GetStats(ctx context.Context) map[string]interface{}
}

type MemoryStorage struct {
	mu sync.Mutex

	sessions *lru.Cache[int64, models.Session]
	size     int
	ttl      time.Duration

	// last write per chat, for TTL expiry
	updatedAt map[int64]time.Time
	now       func() time.Time
}

// NewMemoryStorage creates an LRU bounded store. Non-positive size or ttl
// fall back to the defaults.
func NewMemoryStorage(size int, ttl time.Duration) (*MemoryStorage, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &MemoryStorage{
		size:      size,
		ttl:       ttl,
		updatedAt: make(map[int64]time.Time),
		now:       time.Now,
	}
	sessions, err := lru.NewWithEvict[int64, models.Session](size, func(chatID int64, _ models.Session) {
		delete(s.updatedAt, chatID)
	})
	if err != nil {
		return nil, err
	}
	s.sessions = sessions
	return s, nil
}

// RunCleanup drops expired sessions every interval until ctx is done.
func (s *MemoryStorage) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpiredData()
		}
	}
}

func (s *MemoryStorage) CleanupExpiredData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for chatID, updatedAt := range s.updatedAt {
		if now.Sub(updatedAt) > s.ttl {
			s.sessions.Remove(chatID)
			delete(s.updatedAt, chatID)
		}
	}
}

func (s *MemoryStorage) Get(_ context.Context, chatID int64) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions.Get(chatID)
	if !ok {
		return models.Session{}, nil
	}
	if updatedAt, ok := s.updatedAt[chatID]; ok && s.now().Sub(updatedAt) > s.ttl {
		s.sessions.Remove(chatID)
		delete(s.updatedAt, chatID)
		return models.Session{}, nil
	}
	return session, nil
}

func (s *MemoryStorage) Set(ctx context.Context, chatID int64, session models.Session) error {
	if session.Idle() {
		return s.Clear(ctx, chatID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions.Add(chatID, session)
	s.updatedAt[chatID] = s.now()
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions.Remove(chatID)
	delete(s.updatedAt, chatID)
	return nil
}

func (s *MemoryStorage) GetStats(_ context.Context) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"backend":        "memory",
		"sessions":       s.sessions.Len(),
		"cache_capacity": s.size,
		"ttl":            s.ttl.String(),
	}
}
