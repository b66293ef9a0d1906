package amqp

import (
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/transport"
	amqp "github.com/rabbitmq/amqp091-go"
)

//go:generate mockgen --build_flags=--mod=mod -destination delivery_mock_test.go -package amqp . Delivery

// Delivery is the part of amqp.Delivery the transport depends on
type Delivery interface {
	Headers() amqp.Table
	Timestamp() time.Time
	Body() []byte
	Exchange() string
	RoutingKey() string
	MessageID() string
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
}

type delivery struct {
	msg *amqp.Delivery
}

func (d delivery) Headers() amqp.Table {
	return d.msg.Headers
}

func (d delivery) Timestamp() time.Time {
	return d.msg.Timestamp
}

func (d delivery) Body() []byte {
	return d.msg.Body
}

func (d delivery) Exchange() string {
	return d.msg.Exchange
}

func (d delivery) RoutingKey() string {
	return d.msg.RoutingKey
}

func (d delivery) MessageID() string {
	return d.msg.MessageId
}

func (d delivery) Ack(multiple bool) error {
	return d.msg.Ack(multiple)
}

func (d delivery) Nack(multiple, requeue bool) error {
	return d.msg.Nack(multiple, requeue)
}

func (d delivery) Reject(requeue bool) error {
	return d.msg.Reject(requeue)
}

type inAmqpPkg struct {
	delivery   Delivery
	receivedAt time.Time
	queue      string
}

func (i inAmqpPkg) UID() string {
	if uid, ok := i.delivery.Headers()["uid"].(string); ok {
		return uid
	}
	return i.delivery.MessageID()
}

// Origin is the exchange the message was published to, the queue name for messages sent via the default exchange
func (i inAmqpPkg) Origin() string {
	if exchange := i.delivery.Exchange(); exchange != "" {
		return exchange
	}
	return i.queue
}

func (i inAmqpPkg) Key() string {
	return i.delivery.RoutingKey()
}

func (i inAmqpPkg) Payload() []byte {
	return i.delivery.Body()
}

func (i inAmqpPkg) Headers() map[string]interface{} {
	headers := i.delivery.Headers()
	if headers == nil {
		return map[string]interface{}{}
	}

	return headers
}

func (i inAmqpPkg) Ack(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Ack(ackOpts.multiple)
}

func (i inAmqpPkg) Nack(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Nack(ackOpts.multiple, ackOpts.requeue)
}

func (i inAmqpPkg) Reject(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Reject(ackOpts.requeue)
}

func (i inAmqpPkg) PublishedAt() time.Time {
	return i.delivery.Timestamp()
}

func (i inAmqpPkg) ReceivedAt() time.Time {
	return i.receivedAt
}

func WithRequeue() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["requeue"] = true
	}
}

func WithMultiple() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["multiple"] = true
	}
}

type ackOpts struct {
	requeue  bool
	multiple bool
}

func collectOpts(passedOpts ...transport.AcknowledgmentOption) *ackOpts {
	optsMap := map[string]interface{}{}
	for _, opt := range passedOpts {
		opt(optsMap)
	}

	opts := &ackOpts{}

	if requeue, isBool := optsMap["requeue"].(bool); isBool {
		opts.requeue = requeue
	}

	if multiple, isBool := optsMap["multiple"].(bool); isBool {
		opts.multiple = multiple
	}

	return opts
}
