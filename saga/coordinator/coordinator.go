package coordinator

import (
	"context"
	"time"

	"github.com/go-foreman/enrollsaga/idempotency"
	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	busErrs "github.com/go-foreman/enrollsaga/pubsub/errors"
	"github.com/go-foreman/enrollsaga/pubsub/message/execution"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/go-foreman/enrollsaga/saga/mutex"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tidwall/btree"
)

const (
	outcomeApplied    = "applied"
	outcomeDuplicate  = "duplicate"
	outcomeStale      = "stale"
	outcomeBuffered   = "buffered"
	outcomeInvalid    = "invalid"
	outcomeGapSkipped = "gap_skipped"
	outcomeEvicted    = "evicted"
)

type Config struct {
	// MaxBuffered is how many out of order events of one saga are kept waiting for a missing one.
	// When it is exceeded the gap is skipped.
	MaxBuffered int
	// Retention is how long finished sagas stay in the store after their last update
	Retention time.Duration
	// ConsumerName scopes processed event ids in the idempotency store
	ConsumerName string
}

var DefaultConfig = Config{
	MaxBuffered:  100,
	Retention:    time.Hour * 24,
	ConsumerName: "saga-coordinator",
}

type Opt func(c *Coordinator)

func WithConfig(config Config) Opt {
	return func(c *Coordinator) {
		c.config = config
	}
}

func WithMutex(m mutex.Mutex) Opt {
	return func(c *Coordinator) {
		c.mutex = m
	}
}

func WithIdempotencyStore(s idempotency.Store) Opt {
	return func(c *Coordinator) {
		c.processed = s
	}
}

func WithMetrics(m *metrics.Metrics) Opt {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithClock(now func() time.Time) Opt {
	return func(c *Coordinator) {
		c.now = now
	}
}

// Coordinator projects saga events into saga instances. It only observes, compensation is driven by the orchestrator.
type Coordinator struct {
	store     saga.Store
	mutex     mutex.Mutex
	processed idempotency.Store
	logger    log.Logger
	metrics   *metrics.Metrics
	config    Config
	now       func() time.Time
	buffers   *xsync.MapOf[string, *reorderBuffer]
	// evicted sagas are remembered for one more retention period, late events of them are dropped
	evicted *xsync.MapOf[string, time.Time]
}

// reorderBuffer keeps events that arrived ahead of a missing one, guarded by the saga lock
type reorderBuffer struct {
	pending   *btree.Map[uint64, *saga.SagaEvent]
	touchedAt time.Time
}

func NewCoordinator(store saga.Store, logger log.Logger, opts ...Opt) *Coordinator {
	c := &Coordinator{
		store:     store,
		mutex:     mutex.NewMemoryMutex(),
		processed: idempotency.NewMemoryStore(),
		logger:    logger,
		config:    DefaultConfig,
		now:       time.Now,
		buffers:   xsync.NewMapOf[string, *reorderBuffer](),
		evicted:   xsync.NewMapOf[string, time.Time](),
	}

	for _, o := range opts {
		o(c)
	}

	if c.config.MaxBuffered < 1 {
		c.config.MaxBuffered = 1
	}

	return c
}

// Handle is the executor subscribed to saga events on the bus
func (c *Coordinator) Handle(execCtx execution.MessageExecutionCtx) error {
	ev, ok := execCtx.Message().Payload().(*saga.SagaEvent)
	if !ok {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("coordinator received %T instead of saga event", execCtx.Message().Payload()))
	}

	return c.HandleEvent(execCtx.Context(), ev)
}

// HandleEvent applies ev to the projection of its saga. Events of one saga are applied in sequence order,
// stale and duplicate ones are ignored.
func (c *Coordinator) HandleEvent(ctx context.Context, ev *saga.SagaEvent) error {
	if ev.SagaID == "" || ev.SequenceNumber == 0 {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("saga event %s has no saga id or sequence number", ev.EventID))
	}

	logger := c.logger.WithFields([]log.Field{{Name: "sagaId", Val: ev.SagaID}})

	lock, err := c.mutex.Lock(ctx, ev.SagaID)
	if err != nil {
		return errors.Wrapf(err, "locking saga %s", ev.SagaID)
	}

	defer func() {
		if err := lock.Release(ctx); err != nil {
			logger.Log(log.ErrorLevel, err)
		}
	}()

	if _, evicted := c.evicted.Load(ev.SagaID); evicted {
		logger.Logf(log.DebugLevel, "event %s with sequence %d belongs to an evicted saga", ev.EventID, ev.SequenceNumber)
		c.metrics.CoordinatorEvent(outcomeEvicted)
		return nil
	}

	processed, err := c.processed.Processed(ctx, c.config.ConsumerName, ev.EventID)
	if err != nil {
		return errors.Wrapf(err, "checking event %s", ev.EventID)
	}

	if processed {
		logger.Logf(log.DebugLevel, "event %s was already applied", ev.EventID)
		c.metrics.IdempotentSkip(c.config.ConsumerName)
		c.metrics.CoordinatorEvent(outcomeDuplicate)
		return nil
	}

	instance, err := c.store.GetById(ctx, ev.SagaID)
	if err != nil && !errors.Is(err, saga.ErrSagaNotFound) {
		return errors.Wrapf(err, "loading saga %s", ev.SagaID)
	}

	exists := instance != nil

	var last uint64
	if exists {
		last = instance.LastSequence
	}

	if ev.SequenceNumber <= last {
		logger.Logf(log.DebugLevel, "event %s with sequence %d is stale, last applied %d", ev.EventID, ev.SequenceNumber, last)
		c.metrics.CoordinatorEvent(outcomeStale)
		return nil
	}

	buf, _ := c.buffers.LoadOrCompute(ev.SagaID, func() *reorderBuffer {
		return &reorderBuffer{pending: btree.NewMap[uint64, *saga.SagaEvent](10)}
	})

	first := ev
	consumed := make([]uint64, 0)

	if ev.SequenceNumber > last+1 {
		buf.pending.Set(ev.SequenceNumber, ev)
		buf.touchedAt = c.now()

		if buf.pending.Len() <= c.config.MaxBuffered {
			logger.Logf(log.DebugLevel, "event %s with sequence %d is buffered, waiting for %d", ev.EventID, ev.SequenceNumber, last+1)
			c.metrics.CoordinatorEvent(outcomeBuffered)
			return nil
		}

		seq, earliest, _ := buf.pending.Min()
		logger.Logf(log.WarnLevel, "%d events are buffered, skipping missing sequence %d..%d", buf.pending.Len(), last+1, seq-1)
		c.metrics.CoordinatorEvent(outcomeGapSkipped)

		first = earliest
		consumed = append(consumed, seq)
	}

	applied := []*saga.SagaEvent{first}
	instance = c.apply(instance, first, logger)

	for {
		next, ok := buf.pending.Get(instance.LastSequence + 1)
		if !ok {
			break
		}

		consumed = append(consumed, next.SequenceNumber)
		applied = append(applied, next)
		instance = c.apply(instance, next, logger)
	}

	if exists {
		err = c.store.Update(ctx, instance)
	} else {
		err = c.store.Create(ctx, instance)
	}

	if err != nil {
		return errors.Wrapf(err, "saving saga %s", ev.SagaID)
	}

	for _, seq := range consumed {
		buf.pending.Delete(seq)
	}

	// buffered events that fell behind are not needed anymore
	for {
		seq, _, ok := buf.pending.Min()
		if !ok || seq > instance.LastSequence {
			break
		}
		buf.pending.Delete(seq)
	}

	if buf.pending.Len() == 0 {
		c.buffers.Delete(ev.SagaID)
	}

	for _, appliedEv := range applied {
		if err := c.processed.MarkProcessed(ctx, c.config.ConsumerName, appliedEv.EventID); err != nil {
			return errors.Wrapf(err, "marking event %s as applied", appliedEv.EventID)
		}
	}

	return nil
}

// apply moves instance according to the transition table. An invalid transition is dropped but still consumes its sequence number.
func (c *Coordinator) apply(instance *saga.Instance, ev *saga.SagaEvent, logger log.Logger) *saga.Instance {
	if instance == nil {
		instance = saga.NewInstance(ev.SagaID, ev.UserID, ev.CourseID, c.now())
		instance.Status = statusNone

		if ev.EventType != saga.EventSagaStarted {
			// start of the saga was lost behind a skipped gap
			instance.Status = saga.StatusStarted
		}
	}

	next, err := NextStatus(instance.Status, ev.EventType)
	if err != nil {
		logger.Logf(log.WarnLevel, "dropping event %s with sequence %d. %s", ev.EventID, ev.SequenceNumber, err)
		c.metrics.CoordinatorEvent(outcomeInvalid)
		if instance.Status == statusNone {
			instance.Status = saga.StatusStarted
		}
	} else {
		if handler, exists := payloadHandlers[ev.EventType]; exists {
			handler(instance, ev)
		}
		instance.Status = next
		c.metrics.CoordinatorEvent(outcomeApplied)
	}

	instance.LastSequence = ev.SequenceNumber
	instance.UpdatedAt = c.now()

	return instance
}

// GetTransactionState returns the projection of a saga, saga.ErrSagaNotFound if it is unknown or evicted
func (c *Coordinator) GetTransactionState(ctx context.Context, sagaId string) (*saga.Instance, error) {
	return c.store.GetById(ctx, sagaId)
}

// Evict deletes finished sagas not updated within retention and returns how many were deleted.
// It also drops reorder buffers nobody touched within retention and prunes processed event ids when the store supports it.
func (c *Coordinator) Evict(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-c.config.Retention)

	stale, err := c.store.GetByFilter(ctx,
		saga.WithStatus(saga.StatusCompleted, saga.StatusCompensated, saga.StatusFailed),
		saga.WithUpdatedBefore(cutoff),
	)
	if err != nil {
		return 0, errors.Wrap(err, "loading sagas to evict")
	}

	evicted := 0

	for _, instance := range stale {
		deleted, err := c.evict(ctx, instance.SagaID, now)
		if err != nil {
			return evicted, err
		}
		if deleted {
			evicted++
		}
	}

	c.evicted.Range(func(sagaId string, evictedAt time.Time) bool {
		if evictedAt.Before(cutoff) {
			c.evicted.Delete(sagaId)
		}
		return true
	})

	if err := c.dropAbandonedBuffers(ctx, cutoff); err != nil {
		return evicted, err
	}

	if pruner, ok := c.processed.(idempotency.Pruner); ok {
		pruned, err := pruner.Prune(ctx, cutoff)
		if err != nil {
			return evicted, errors.Wrap(err, "pruning processed events")
		}
		if pruned > 0 {
			c.logger.Logf(log.DebugLevel, "pruned %d processed events", pruned)
		}
	}

	return evicted, nil
}

func (c *Coordinator) evict(ctx context.Context, sagaId string, now time.Time) (bool, error) {
	lock, err := c.mutex.Lock(ctx, sagaId)
	if err != nil {
		return false, errors.Wrapf(err, "locking saga %s", sagaId)
	}

	defer func() {
		if err := lock.Release(ctx); err != nil {
			c.logger.Log(log.ErrorLevel, err)
		}
	}()

	c.evicted.Store(sagaId, now)
	c.buffers.Delete(sagaId)

	if err := c.store.Delete(ctx, sagaId); err != nil {
		if errors.Is(err, saga.ErrSagaNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "evicting saga %s", sagaId)
	}

	return true, nil
}

// dropAbandonedBuffers removes buffered events still waiting for a missing sequence after retention passed
func (c *Coordinator) dropAbandonedBuffers(ctx context.Context, cutoff time.Time) error {
	var buffered []string
	c.buffers.Range(func(sagaId string, buf *reorderBuffer) bool {
		buffered = append(buffered, sagaId)
		return true
	})

	for _, sagaId := range buffered {
		lock, err := c.mutex.Lock(ctx, sagaId)
		if err != nil {
			return errors.Wrapf(err, "locking saga %s", sagaId)
		}

		if buf, ok := c.buffers.Load(sagaId); ok && buf.touchedAt.Before(cutoff) {
			c.logger.Logf(log.WarnLevel, "dropping %d buffered events of saga %s, missing sequence never arrived", buf.pending.Len(), sagaId)
			c.buffers.Delete(sagaId)
		}

		if err := lock.Release(ctx); err != nil {
			c.logger.Log(log.ErrorLevel, err)
		}
	}

	return nil
}

// RunRetention evicts finished sagas every interval until ctx is done
func (c *Coordinator) RunRetention(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := c.Evict(ctx, c.now())
			if err != nil {
				c.logger.Logf(log.ErrorLevel, "evicting finished sagas. %s", err)
				continue
			}

			if evicted > 0 {
				c.logger.Logf(log.InfoLevel, "evicted %d finished sagas", evicted)
			}
		}
	}
}
