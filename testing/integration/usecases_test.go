//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foreman/enrollsaga/idempotency"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/go-foreman/enrollsaga/saga/coordinator"
	"github.com/go-foreman/enrollsaga/saga/mutex"
	"github.com/go-foreman/enrollsaga/testing/log"
)

func testSQLStoreUseCases(t *testing.T, db *sql.DB, driver saga.SQLDriver) {
	store, err := saga.NewSQLStore(db, driver)
	require.NoError(t, err)

	// timestamp columns keep whole seconds
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("create and load saga instance", func(t *testing.T) {
		ctx := context.Background()
		instance := saga.NewInstance(uuid.New().String(), 1, 100, now)
		instance.PaymentID = "pay-1"
		instance.AddCompletedStep("ValidateCourse")
		instance.LastSequence = 2

		require.NoError(t, store.Create(ctx, instance))

		loaded, err := store.GetById(ctx, instance.SagaID)
		require.NoError(t, err)
		assert.Equal(t, instance.SagaID, loaded.SagaID)
		assert.Equal(t, "pay-1", loaded.PaymentID)
		assert.Equal(t, []string{"ValidateCourse"}, loaded.CompletedSteps)
		assert.Empty(t, loaded.CompensatedSteps)
		assert.EqualValues(t, 2, loaded.LastSequence)
		assert.Equal(t, saga.StatusStarted, loaded.Status)
		assert.True(t, now.Equal(loaded.StartedAt))
	})

	t.Run("update saga instance", func(t *testing.T) {
		ctx := context.Background()
		instance := saga.NewInstance(uuid.New().String(), 2, 100, now)
		require.NoError(t, store.Create(ctx, instance))

		instance.Status = saga.StatusCompensated
		instance.FailedStep = "CreateEnrollment"
		instance.ErrorMessage = "course 100: capacity exceeded"
		instance.AddCompensatedStep("CreatePayment")
		instance.AddCompensatedStep("ValidateCourse")
		instance.UpdatedAt = now.Add(time.Second)
		require.NoError(t, store.Update(ctx, instance))

		loaded, err := store.GetById(ctx, instance.SagaID)
		require.NoError(t, err)
		assert.Equal(t, saga.StatusCompensated, loaded.Status)
		assert.Equal(t, "CreateEnrollment", loaded.FailedStep)
		assert.Equal(t, "course 100: capacity exceeded", loaded.ErrorMessage)
		assert.Equal(t, []string{"CreatePayment", "ValidateCourse"}, loaded.CompensatedSteps)
	})

	t.Run("missing saga", func(t *testing.T) {
		_, err := store.GetById(context.Background(), "missing")
		assert.ErrorIs(t, err, saga.ErrSagaNotFound)

		err = store.Delete(context.Background(), "missing")
		assert.ErrorIs(t, err, saga.ErrSagaNotFound)
	})

	t.Run("filter by status and updated time", func(t *testing.T) {
		ctx := context.Background()
		old := now.Add(-time.Hour * 48)

		finished := saga.NewInstance(uuid.New().String(), 3, 100, old)
		finished.Status = saga.StatusCompleted
		require.NoError(t, store.Create(ctx, finished))

		running := saga.NewInstance(uuid.New().String(), 4, 100, old)
		running.Status = saga.StatusInProgress
		require.NoError(t, store.Create(ctx, running))

		found, err := store.GetByFilter(ctx,
			saga.WithStatus(saga.StatusCompleted, saga.StatusCompensated, saga.StatusFailed),
			saga.WithUpdatedBefore(now.Add(-time.Hour*24)),
		)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, finished.SagaID, found[0].SagaID)

		byID, err := store.GetByFilter(ctx, saga.WithSagaId(running.SagaID))
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.Equal(t, saga.StatusInProgress, byID[0].Status)

		page, err := store.GetByFilter(ctx, saga.WithStatus(saga.StatusCompleted, saga.StatusInProgress), saga.WithOffsetAndLimit(0, 1))
		require.NoError(t, err)
		assert.Len(t, page, 1)

		require.NoError(t, store.Delete(ctx, finished.SagaID))
		require.NoError(t, store.Delete(ctx, running.SagaID))
	})

	t.Run("coordinator projects events into the store", func(t *testing.T) {
		ctx := context.Background()
		sagaID := uuid.New().String()
		c := coordinator.NewCoordinator(store, log.NewNilLogger(),
			coordinator.WithMutex(mutex.NewSqlMutex(db, driver, log.NewNilLogger())),
		)

		events := []*saga.SagaEvent{
			{EventID: sagaID + "-1", SagaID: sagaID, SequenceNumber: 1, EventType: saga.EventSagaStarted, UserID: 5, CourseID: 100, OccurredAt: now},
			{EventID: sagaID + "-2", SagaID: sagaID, SequenceNumber: 2, EventType: saga.EventStepCompleted, CurrentStep: "ValidateCourse", UserID: 5, CourseID: 100, OccurredAt: now},
		}

		// out of order delivery is reordered by sequence
		require.NoError(t, c.HandleEvent(ctx, events[1]))
		require.NoError(t, c.HandleEvent(ctx, events[0]))

		state, err := c.GetTransactionState(ctx, sagaID)
		require.NoError(t, err)
		assert.Equal(t, saga.StatusInProgress, state.Status)
		assert.Equal(t, []string{"ValidateCourse"}, state.CompletedSteps)
		assert.EqualValues(t, 2, state.LastSequence)
	})
}

func testSQLMutexUseCases(t *testing.T, db *sql.DB, driver saga.SQLDriver) {
	newMutex := func() mutex.Mutex {
		return mutex.NewSqlMutex(db, driver, log.NewNilLogger())
	}
	sqlMutex := newMutex()

	t.Run("acquire and release a mutex sequentially", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		for i := 0; i < 2; i++ {
			lock, err := sqlMutex.Lock(ctx, "xxx")
			require.NoError(t, err)
			assert.NoError(t, lock.Release(ctx))
		}
	})

	t.Run("wait to acquire locked mutex from another service instance", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		lock, err := sqlMutex.Lock(ctx, "yyy")
		require.NoError(t, err)

		acquired := make(chan mutex.Lock)
		go func() {
			anotherLock, err := newMutex().Lock(ctx, "yyy")
			assert.NoError(t, err)
			acquired <- anotherLock
		}()

		select {
		case <-acquired:
			t.Fatal("lock was acquired while it was held")
		case <-time.After(time.Millisecond * 300):
		}

		require.NoError(t, lock.Release(ctx))

		select {
		case anotherLock := <-acquired:
			require.NotNil(t, anotherLock)
			assert.NoError(t, anotherLock.Release(ctx))
		case <-ctx.Done():
			t.Fatal("lock was not acquired after release")
		}
	})

	t.Run("locking is cancelled with context", func(t *testing.T) {
		lock, err := sqlMutex.Lock(context.Background(), "zzz")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, lock.Release(context.Background()))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*200)
		defer cancel()

		_, err = newMutex().Lock(ctx, "zzz")
		require.Error(t, err)
		assert.True(t, mutex.IsMutexErr(err))
	})

	t.Run("different sagas do not block each other", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				lock, err := sqlMutex.Lock(ctx, fmt.Sprintf("saga-%d", i))
				if assert.NoError(t, err) {
					assert.NoError(t, lock.Release(ctx))
				}
			}(i)
		}
		wg.Wait()
	})
}

func testSQLIdempotencyUseCases(t *testing.T, db *sql.DB, driver saga.SQLDriver) {
	store, err := idempotency.NewSQLStore(db, driver)
	require.NoError(t, err)

	ctx := context.Background()
	eventID := uuid.New().String()

	processed, err := store.Processed(ctx, "payment", eventID)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkProcessed(ctx, "payment", eventID))
	require.NoError(t, store.MarkProcessed(ctx, "payment", eventID))

	processed, err = store.Processed(ctx, "payment", eventID)
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.Processed(ctx, "enrollment", eventID)
	require.NoError(t, err)
	assert.False(t, processed, "processed events are scoped by consumer")
}
