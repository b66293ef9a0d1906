package transport

import (
	"context"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/transport/transport.go -package transport . Transport,IncomingPkg

// Transport is a broker abstraction. Topics are where publishers send, queues are what subscribers consume.
// For amqp a topic is an exchange. For kafka a queue is a subscription of a consumer group to a topic.
type Transport interface {
	CreateTopic(ctx context.Context, topic Topic) error
	CreateQueue(ctx context.Context, queue Queue, queueBind ...QueueBind) error
	Consume(ctx context.Context, queues []Queue, options ...ConsumeOpts) (<-chan IncomingPkg, error)
	Send(ctx context.Context, outboundPkg OutboundPkg, options ...SendOpts) error
	Connect(context.Context) error
	Disconnect(context.Context) error
}

type Topic interface {
	Name() string
}

type Queue interface {
	Name() string
}

type QueueBind interface {
	DestinationTopic() string
	BindingKey() string
}

// ConsumeOpts and SendOpts receive transport specific options struct, each transport ignores unknown ones
type ConsumeOpts func(options interface{}) error
type SendOpts func(options interface{}) error

func NewTopic(name string) Topic {
	return topic{name: name}
}

type topic struct {
	name string
}

func (t topic) Name() string {
	return t.name
}

func NewQueue(name string) Queue {
	return queue{name: name}
}

type queue struct {
	name string
}

func (q queue) Name() string {
	return q.name
}

func NewQueueBind(destinationTopic, bindingKey string) QueueBind {
	return queueBind{destinationTopic: destinationTopic, bindingKey: bindingKey}
}

type queueBind struct {
	destinationTopic string
	bindingKey       string
}

func (q queueBind) DestinationTopic() string {
	return q.destinationTopic
}

func (q queueBind) BindingKey() string {
	return q.bindingKey
}
