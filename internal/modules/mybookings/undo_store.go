package mybookings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryUndoStore keeps pending undos in process. Expired entries are
// ignored on Peek and dropped by Sweep.
type MemoryUndoStore struct {
	mu    sync.Mutex
	items map[string]PendingUndo
	now   func() time.Time
}

func NewMemoryUndoStore() *MemoryUndoStore {
	return &MemoryUndoStore{
		items: make(map[string]PendingUndo),
		now:   time.Now,
	}
}

func (s *MemoryUndoStore) Put(_ context.Context, viewerKey, bookingID string, ttl time.Duration) (*PendingUndo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := PendingUndo{BookingID: bookingID, ExpiresAt: s.now().Add(ttl).UTC()}
	s.items[viewerKey] = p
	return &p, nil
}

func (s *MemoryUndoStore) Peek(_ context.Context, viewerKey string) (*PendingUndo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[viewerKey]
	if !ok {
		return nil, ErrNothingToUndo
	}
	if !s.now().Before(p.ExpiresAt) {
		delete(s.items, viewerKey)
		return nil, ErrNothingToUndo
	}
	return &p, nil
}

func (s *MemoryUndoStore) Clear(_ context.Context, viewerKey string, p PendingUndo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.items[viewerKey]; ok && cur.BookingID == p.BookingID && cur.ExpiresAt.Equal(p.ExpiresAt) {
		delete(s.items, viewerKey)
	}
	return nil
}

// Sweep removes expired tokens and returns how many were dropped.
func (s *MemoryUndoStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, p := range s.items {
		if !now.Before(p.ExpiresAt) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

const undoKeyPrefix = "therapyspace:undo:"

// clearIfSame deletes KEYS[1] only while it still holds ARGV[1].
var clearIfSame = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisUndoStore shares pending undos between API replicas. Redis expires
// the key after ttl; ExpiresAt is reported from the same ttl.
type RedisUndoStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisUndoStore(rdb *redis.Client) *RedisUndoStore {
	return &RedisUndoStore{rdb: rdb, now: time.Now}
}

func (s *RedisUndoStore) Put(ctx context.Context, viewerKey, bookingID string, ttl time.Duration) (*PendingUndo, error) {
	p := PendingUndo{BookingID: bookingID, ExpiresAt: s.now().Add(ttl).UTC()}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, undoKeyPrefix+viewerKey, raw, ttl).Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisUndoStore) Peek(ctx context.Context, viewerKey string) (*PendingUndo, error) {
	raw, err := s.rdb.Get(ctx, undoKeyPrefix+viewerKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNothingToUndo
		}
		return nil, err
	}

	var p PendingUndo
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisUndoStore) Clear(ctx context.Context, viewerKey string, p PendingUndo) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return clearIfSame.Run(ctx, s.rdb, []string{undoKeyPrefix + viewerKey}, string(raw)).Err()
}
