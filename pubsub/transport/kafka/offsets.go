package kafka

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/tidwall/btree"
)

type trackedOffset struct {
	msg  kafka.Message
	done bool
}

// offsetTracker commits offsets of one reader in partition order.
// Workers ack in any order, a commit never moves past an offset that is still in flight.
type offsetTracker struct {
	reader     Reader
	mu         sync.Mutex
	partitions map[int]*btree.Map[int64, *trackedOffset]
}

func newOffsetTracker(reader Reader) *offsetTracker {
	return &offsetTracker{reader: reader, partitions: map[int]*btree.Map[int64, *trackedOffset]{}}
}

func (o *offsetTracker) track(msg kafka.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()

	pending, ok := o.partitions[msg.Partition]
	if !ok {
		pending = btree.NewMap[int64, *trackedOffset](16)
		o.partitions[msg.Partition] = pending
	}
	pending.Set(msg.Offset, &trackedOffset{msg: msg})
}

// done marks the offset as handled and commits the highest offset below which everything is handled
func (o *offsetTracker) done(ctx context.Context, msg kafka.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pending, ok := o.partitions[msg.Partition]
	if !ok {
		return nil
	}

	tracked, ok := pending.Get(msg.Offset)
	if !ok {
		return nil
	}
	tracked.done = true

	var watermark *kafka.Message
	for {
		_, lowest, ok := pending.Min()
		if !ok || !lowest.done {
			break
		}
		watermark = &lowest.msg
		pending.PopMin()
	}

	if watermark == nil {
		return nil
	}

	// a failed commit is covered by the next successful one on this partition
	if err := o.reader.CommitMessages(ctx, *watermark); err != nil {
		return errors.Wrapf(err, "committing offset %d of %s/%d", watermark.Offset, watermark.Topic, watermark.Partition)
	}

	return nil
}

func (o *offsetTracker) inFlight(partition int) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if pending, ok := o.partitions[partition]; ok {
		return pending.Len()
	}
	return 0
}
