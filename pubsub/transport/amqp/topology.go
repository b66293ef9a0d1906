package amqp

import (
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Topic is an exchange of type topic
func Topic(name string, durable, autoDelete, internal, noWait bool) transport.Topic {
	return amqpTopic{name: name, durable: durable, autoDelete: autoDelete, internal: internal, noWait: noWait}
}

type amqpTopic struct {
	name       string
	durable    bool
	autoDelete bool
	internal   bool
	noWait     bool
}

func (a amqpTopic) Name() string {
	return a.name
}

type QueueType string

const (
	QueueTypeClassic QueueType = "classic"
	QueueTypeQuorum  QueueType = "quorum"
)

type QueueOptionsPatch func(options *amqpQueue)

func WithQueueType(v QueueType) QueueOptionsPatch {
	return func(options *amqpQueue) {
		options.queueType = v
	}
}

// WithDeadLetterExchange makes the broker route rejected deliveries of the queue to the exchange
func WithDeadLetterExchange(exchange, routingKey string) QueueOptionsPatch {
	return func(options *amqpQueue) {
		options.deadLetterExchange = exchange
		options.deadLetterRoutingKey = routingKey
	}
}

func Queue(name string, durable, autoDelete, exclusive, noWait bool, patches ...QueueOptionsPatch) transport.Queue {
	q := amqpQueue{queueName: name, durable: durable, autoDelete: autoDelete, exclusive: exclusive, noWait: noWait}

	for _, patch := range patches {
		patch(&q)
	}

	return q
}

type amqpQueue struct {
	queueName            string
	queueType            QueueType
	deadLetterExchange   string
	deadLetterRoutingKey string
	durable              bool
	autoDelete           bool
	exclusive            bool
	noWait               bool
}

func (q amqpQueue) Name() string {
	return q.queueName
}

func (q amqpQueue) args() amqp.Table {
	if q.queueType == "" && q.deadLetterExchange == "" {
		return nil
	}

	args := amqp.Table{}
	if q.queueType != "" {
		args["x-queue-type"] = string(q.queueType)
	}
	if q.deadLetterExchange != "" {
		args["x-dead-letter-exchange"] = q.deadLetterExchange
		if q.deadLetterRoutingKey != "" {
			args["x-dead-letter-routing-key"] = q.deadLetterRoutingKey
		}
	}

	return args
}

func QueueBind(destinationTopic, bindingKey string, noWait bool) transport.QueueBind {
	return amqpQueueBind{destination: destinationTopic, binding: bindingKey, noWait: noWait}
}

type amqpQueueBind struct {
	destination string
	binding     string
	noWait      bool
}

func (q amqpQueueBind) DestinationTopic() string {
	return q.destination
}

func (q amqpQueueBind) BindingKey() string {
	return q.binding
}

// generic topology from transport package is declared durable
func toAmqpTopic(t transport.Topic) amqpTopic {
	if topic, ok := t.(amqpTopic); ok {
		return topic
	}
	return amqpTopic{name: t.Name(), durable: true}
}

func toAmqpQueue(q transport.Queue) amqpQueue {
	if queue, ok := q.(amqpQueue); ok {
		return queue
	}
	return amqpQueue{queueName: q.Name(), durable: true}
}

func toAmqpQueueBind(qb transport.QueueBind) amqpQueueBind {
	if bind, ok := qb.(amqpQueueBind); ok {
		return bind
	}
	return amqpQueueBind{destination: qb.DestinationTopic(), binding: qb.BindingKey()}
}
