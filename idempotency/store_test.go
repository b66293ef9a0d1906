package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-foreman/enrollsaga/metrics"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	processed, err := store.Processed(ctx, "enrollment", "ev-1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkProcessed(ctx, "enrollment", "ev-1"))
	require.NoError(t, store.MarkProcessed(ctx, "enrollment", "ev-1"))

	processed, err = store.Processed(ctx, "enrollment", "ev-1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.Processed(ctx, "payment", "ev-1")
	require.NoError(t, err)
	assert.False(t, processed, "consumers are isolated")

	t.Run("prune forgets events marked before the cutoff", func(t *testing.T) {
		store := NewMemoryStore()
		pruner, ok := store.(Pruner)
		require.True(t, ok)

		require.NoError(t, store.MarkProcessed(ctx, "enrollment", "ev-1"))
		require.NoError(t, store.MarkProcessed(ctx, "payment", "ev-1"))

		pruned, err := pruner.Prune(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, pruned)

		pruned, err = pruner.Prune(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, pruned)

		processed, err := store.Processed(ctx, "enrollment", "ev-1")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}

func TestGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("applies once", func(t *testing.T) {
		store := NewMemoryStore()
		m := metrics.New(prometheus.NewRegistry())
		calls := 0

		for i := 0; i < 3; i++ {
			skipped, err := Guard(ctx, store, m, "enrollment", "ev-1", func() error {
				calls++
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, i > 0, skipped)
		}

		assert.Equal(t, 1, calls)
		assert.Equal(t, float64(2), testutil.ToFloat64(m.IdempotentSkips.WithLabelValues("enrollment")))
	})

	t.Run("failed apply is not marked", func(t *testing.T) {
		store := NewMemoryStore()
		calls := 0

		_, err := Guard(ctx, store, nil, "enrollment", "ev-1", func() error {
			calls++
			return errors.New("db is down")
		})
		assert.EqualError(t, err, "db is down")

		skipped, err := Guard(ctx, store, nil, "enrollment", "ev-1", func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.False(t, skipped)
		assert.Equal(t, 2, calls)
	})
}

const createProcessedEventsQuery = "create table if not exists processed_events ( consumer varchar(255) not null, event_id varchar(255) not null, processed_at timestamp null, primary key (consumer, event_id) );"

func TestSQLStore(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T, driver saga.SQLDriver) (Store, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Close()
		})

		mock.ExpectExec(createProcessedEventsQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		store, err := NewSQLStore(db, driver)
		require.NoError(t, err)

		return store, mock
	}

	t.Run("init error", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(createProcessedEventsQuery).WillReturnError(errors.New("access denied"))
		_, err = NewSQLStore(db, saga.MYSQLDriver)
		assert.EqualError(t, err, "initializing tables for idempotency store, driver mysql: access denied")
	})

	t.Run("mysql", func(t *testing.T) {
		store, mock := newStore(t, saga.MYSQLDriver)

		mock.ExpectQuery("SELECT 1 FROM processed_events WHERE consumer=? AND event_id=?;").
			WithArgs("payment", "ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		processed, err := store.Processed(ctx, "payment", "ev-1")
		require.NoError(t, err)
		assert.False(t, processed)

		mock.ExpectExec("INSERT IGNORE INTO processed_events (consumer, event_id, processed_at) VALUES (?, ?, ?);").
			WithArgs("payment", "ev-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, store.MarkProcessed(ctx, "payment", "ev-1"))

		mock.ExpectQuery("SELECT 1 FROM processed_events WHERE consumer=? AND event_id=?;").
			WithArgs("payment", "ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		processed, err = store.Processed(ctx, "payment", "ev-1")
		require.NoError(t, err)
		assert.True(t, processed)

		mock.ExpectQuery("SELECT 1 FROM processed_events WHERE consumer=? AND event_id=?;").
			WithArgs("payment", "ev-2").
			WillReturnError(errors.New("bad connection"))

		_, err = store.Processed(ctx, "payment", "ev-2")
		assert.EqualError(t, err, "querying processed event ev-2 of payment: bad connection")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres", func(t *testing.T) {
		store, mock := newStore(t, saga.PGDriver)

		mock.ExpectExec("INSERT INTO processed_events (consumer, event_id, processed_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING;").
			WithArgs("enrollment", "ev-1", sqlmock.AnyArg()).
			WillReturnError(errors.New("relation does not exist"))

		err := store.MarkProcessed(ctx, "enrollment", "ev-1")
		assert.EqualError(t, err, "inserting processed event ev-1 of enrollment: relation does not exist")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("prune", func(t *testing.T) {
		store, mock := newStore(t, saga.PGDriver)
		before := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectExec("DELETE FROM processed_events WHERE processed_at < $1;").
			WithArgs(before).
			WillReturnResult(sqlmock.NewResult(0, 3))

		pruned, err := store.(Pruner).Prune(ctx, before)
		require.NoError(t, err)
		assert.Equal(t, 3, pruned)

		mock.ExpectExec("DELETE FROM processed_events WHERE processed_at < $1;").
			WithArgs(before).
			WillReturnError(errors.New("lock timeout"))

		_, err = store.(Pruner).Prune(ctx, before)
		assert.EqualError(t, err, "deleting processed events: lock timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
