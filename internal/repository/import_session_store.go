package repository

import (
	"accounting-admin/internal/importer"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ImportSessionStore persists import wizard sessions between requests.
// Loaded sessions still need importer.Session.Restore.
type ImportSessionStore interface {
	Save(ctx context.Context, session *importer.Session) error
	Load(ctx context.Context, id string) (*importer.Session, error)
	Delete(ctx context.Context, id string) error
}

const importSessionKeyPrefix = "import:session:"

// RedisImportSessionStore keeps sessions as JSON with a sliding TTL
type RedisImportSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisImportSessionStore(client *redis.Client, ttl time.Duration) *RedisImportSessionStore {
	return &RedisImportSessionStore{client: client, ttl: ttl}
}

func (s *RedisImportSessionStore) Save(ctx context.Context, session *importer.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode import session: %w", err)
	}
	if err := s.client.Set(ctx, importSessionKeyPrefix+session.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save import session: %w", err)
	}
	return nil
}

func (s *RedisImportSessionStore) Load(ctx context.Context, id string) (*importer.Session, error) {
	payload, err := s.client.Get(ctx, importSessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, importer.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import session: %w", err)
	}

	var session importer.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode import session: %w", err)
	}
	return &session, nil
}

func (s *RedisImportSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, importSessionKeyPrefix+id).Err()
}

type sessionEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryImportSessionStore is the single-instance fallback when Redis is not
// connected. Sessions are stored encoded so callers never share state.
type MemoryImportSessionStore struct {
	mu        sync.RWMutex
	entries   map[string]sessionEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewMemoryImportSessionStore(ttl time.Duration) *MemoryImportSessionStore {
	s := &MemoryImportSessionStore{
		entries:  make(map[string]sessionEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryImportSessionStore) Save(_ context.Context, session *importer.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode import session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = sessionEntry{payload: payload, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryImportSessionStore) Load(_ context.Context, id string) (*importer.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, importer.ErrSessionNotFound
	}

	var session importer.Session
	if err := json.Unmarshal(e.payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode import session: %w", err)
	}
	return &session, nil
}

func (s *MemoryImportSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *MemoryImportSessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryImportSessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryImportSessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of stored sessions, expired ones included
func (s *MemoryImportSessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
