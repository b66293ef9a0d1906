package idempotency

import (
	"context"
	"time"

	"github.com/go-foreman/enrollsaga/metrics"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/idempotency/store.go -package idempotency . Store

// Store remembers which events a consumer has already applied. Keys are scoped by consumer
// because the same event is legitimately handled by several services.
type Store interface {
	Processed(ctx context.Context, consumer, eventID string) (bool, error)
	// MarkProcessed is idempotent, marking an event twice is not an error
	MarkProcessed(ctx context.Context, consumer, eventID string) error
}

// Pruner is implemented by stores that can forget events marked before a point in time
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}

// NewMemoryStore creates a store that lives as long as the process
func NewMemoryStore() Store {
	return &memStore{processed: xsync.NewMapOf[string, time.Time]()}
}

type memStore struct {
	processed *xsync.MapOf[string, time.Time]
}

func (m *memStore) Processed(ctx context.Context, consumer, eventID string) (bool, error) {
	_, ok := m.processed.Load(key(consumer, eventID))
	return ok, nil
}

func (m *memStore) MarkProcessed(ctx context.Context, consumer, eventID string) error {
	m.processed.LoadOrStore(key(consumer, eventID), time.Now())
	return nil
}

func (m *memStore) Prune(ctx context.Context, before time.Time) (int, error) {
	pruned := 0
	m.processed.Range(func(k string, markedAt time.Time) bool {
		if markedAt.Before(before) {
			m.processed.Delete(k)
			pruned++
		}
		return true
	})
	return pruned, nil
}

func key(consumer, eventID string) string {
	return consumer + "/" + eventID
}

// Guard runs apply once per event. It reports skipped=true without calling apply when the event was already processed.
// The event is marked only after apply succeeded, a failed apply is retried on redelivery.
func Guard(ctx context.Context, store Store, m *metrics.Metrics, consumer, eventID string, apply func() error) (skipped bool, err error) {
	processed, err := store.Processed(ctx, consumer, eventID)
	if err != nil {
		return false, errors.Wrapf(err, "checking whether event %s is processed by %s", eventID, consumer)
	}

	if processed {
		m.IdempotentSkip(consumer)
		return true, nil
	}

	if err := apply(); err != nil {
		return false, err
	}

	if err := store.MarkProcessed(ctx, consumer, eventID); err != nil {
		return false, errors.Wrapf(err, "marking event %s as processed by %s", eventID, consumer)
	}

	return false, nil
}
