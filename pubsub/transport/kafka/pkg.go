package kafka

import (
	"context"
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/segmentio/kafka-go"
)

type inKafkaPkg struct {
	msg        kafka.Message
	offsets    *offsetTracker
	receivedAt time.Time
	headers    map[string]interface{}
}

func newInKafkaPkg(msg kafka.Message, offsets *offsetTracker) *inKafkaPkg {
	headers := make(map[string]interface{}, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &inKafkaPkg{msg: msg, offsets: offsets, receivedAt: time.Now(), headers: headers}
}

func (i inKafkaPkg) UID() string {
	if uid, ok := i.headers["uid"].(string); ok {
		return uid
	}
	return ""
}

func (i inKafkaPkg) Origin() string {
	return i.msg.Topic
}

func (i inKafkaPkg) Key() string {
	return string(i.msg.Key)
}

func (i inKafkaPkg) Payload() []byte {
	return i.msg.Value
}

func (i inKafkaPkg) Headers() map[string]interface{} {
	return i.headers
}

func (i inKafkaPkg) Partition() int {
	return i.msg.Partition
}

func (i inKafkaPkg) Offset() int64 {
	return i.msg.Offset
}

// Ack marks the message as handled. The group offset moves once every earlier offset of the partition is handled too.
func (i inKafkaPkg) Ack(options ...transport.AcknowledgmentOption) error {
	return i.offsets.done(context.Background(), i.msg)
}

// Nack keeps the offset in flight, so the partition is not committed past it
// and the group resumes from this message after a restart or a rebalance.
func (i inKafkaPkg) Nack(options ...transport.AcknowledgmentOption) error {
	return nil
}

// Reject drops the message, its offset counts as handled
func (i inKafkaPkg) Reject(options ...transport.AcknowledgmentOption) error {
	return i.offsets.done(context.Background(), i.msg)
}

func (i inKafkaPkg) ReceivedAt() time.Time {
	return i.receivedAt
}

func (i inKafkaPkg) PublishedAt() time.Time {
	return i.msg.Time
}
