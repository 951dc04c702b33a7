package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"therapyspace/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SnapshotKey is the key holding the whole booking collection as one JSON
// array.
const SnapshotKey = "therapyBookings"

const maxWatchRetries = 16

// SnapshotRepository stores every booking in a single JSON document. Each
// mutation is an optimistic read-modify-write guarded by WATCH, so a
// concurrent writer forces a retry instead of a lost update.
type SnapshotRepository struct {
	rdb *redis.Client
	key string
}

func NewSnapshotRepository(rdb *redis.Client) *SnapshotRepository {
	return &SnapshotRepository{rdb: rdb, key: SnapshotKey}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *SnapshotRepository) load(ctx context.Context, c stringGetter) ([]domain.Booking, error) {
	raw, err := c.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Booking{}, nil
		}
		return nil, err
	}

	var bookings []domain.Booking
	if err := json.Unmarshal(raw, &bookings); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	for i := range bookings {
		bookings[i].Normalize()
	}
	return bookings, nil
}

func (r *SnapshotRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return r.load(ctx, r.rdb)
}

func (r *SnapshotRepository) Get(ctx context.Context, id string) (*domain.Booking, error) {
	bookings, err := r.load(ctx, r.rdb)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			b := bookings[i]
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (r *SnapshotRepository) Put(ctx context.Context, b *domain.Booking) error {
	return r.PutMany(ctx, []domain.Booking{*b})
}

// PutMany upserts bookings in one write. New ids are appended in order.
func (r *SnapshotRepository) PutMany(ctx context.Context, bookings []domain.Booking) error {
	return r.mutate(ctx, func(current []domain.Booking) ([]domain.Booking, error) {
		pos := make(map[string]int, len(current))
		for i, b := range current {
			pos[b.ID] = i
		}
		for _, b := range bookings {
			if i, ok := pos[b.ID]; ok {
				current[i] = b
				continue
			}
			pos[b.ID] = len(current)
			current = append(current, b)
		}
		return current, nil
	})
}

func (r *SnapshotRepository) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, func(current []domain.Booking) ([]domain.Booking, error) {
		for i, b := range current {
			if b.ID == id {
				return append(current[:i], current[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *SnapshotRepository) mutate(ctx context.Context, fn func([]domain.Booking) ([]domain.Booking, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, raw, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.rdb.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}
