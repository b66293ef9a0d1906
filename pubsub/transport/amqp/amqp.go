package amqp

import (
	"context"
	"sync"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewTransport creates amqp transport. Topics are declared as exchanges of type topic.
func NewTransport(url string, logger log.Logger) transport.Transport {
	return &amqpTransport{
		url:    url,
		logger: logger,
		connect: func(url string) (AmqpConnection, error) {
			return Dial(url, logger)
		},
	}
}

type amqpTransport struct {
	url     string
	connect func(url string) (AmqpConnection, error)

	mu                sync.Mutex
	connection        AmqpConnection
	publishingChannel AmqpChannel
	logger            log.Logger
}

func (t *amqpTransport) Connect(ctx context.Context) error {
	conn, err := t.connect(t.url)
	if err != nil {
		return errors.WithStack(err)
	}

	t.mu.Lock()
	t.connection = conn
	t.publishingChannel = nil
	t.mu.Unlock()

	return nil
}

// CreateTopic creates an exchange in amqp. Allowed options are: durable, autoDelete, internal, noWait.
func (t *amqpTransport) CreateTopic(ctx context.Context, topic transport.Topic) error {
	channel, err := t.channel()
	if err != nil {
		return errors.WithStack(err)
	}

	amqpTopic := toAmqpTopic(topic)

	return channel.ExchangeDeclare(
		amqpTopic.Name(),
		"topic",
		amqpTopic.durable,
		amqpTopic.autoDelete,
		amqpTopic.internal,
		amqpTopic.noWait,
		nil,
	)
}

func (t *amqpTransport) CreateQueue(ctx context.Context, q transport.Queue, qbs ...transport.QueueBind) error {
	channel, err := t.channel()
	if err != nil {
		return errors.WithStack(err)
	}

	queue := toAmqpQueue(q)

	if _, err := channel.QueueDeclare(
		queue.Name(),
		queue.durable,
		queue.autoDelete,
		queue.exclusive,
		queue.noWait,
		queue.args(),
	); err != nil {
		return errors.Wrapf(err, "declaring queue %s", queue.Name())
	}

	for _, item := range qbs {
		qb := toAmqpQueueBind(item)
		if err := channel.QueueBind(
			queue.Name(),
			qb.BindingKey(),
			qb.DestinationTopic(),
			qb.noWait,
			nil,
		); err != nil {
			return errors.Wrapf(err, "binding queue %s to %s", queue.Name(), qb.DestinationTopic())
		}
	}

	return nil
}

func (t *amqpTransport) Send(ctx context.Context, outboundPkg transport.OutboundPkg, options ...transport.SendOpts) error {
	channel, err := t.channel()
	if err != nil {
		return errors.WithStack(err)
	}

	sendOptions := &SendOptions{}

	for _, opt := range options {
		if err := opt(sendOptions); err != nil {
			return errors.WithStack(err)
		}
	}

	routingKey := outboundPkg.Destination().RoutingKey
	if key := outboundPkg.Key(); key != "" {
		routingKey = key
	}

	publishing := amqp.Publishing{
		Headers:      outboundPkg.Headers(),
		ContentType:  outboundPkg.ContentType(),
		Body:         outboundPkg.Payload(),
		DeliveryMode: amqp.Persistent,
	}

	if uid, ok := outboundPkg.Headers()["uid"].(string); ok {
		publishing.MessageId = uid
	}

	if err := channel.PublishWithContext(
		ctx,
		outboundPkg.Destination().DestinationTopic,
		routingKey,
		sendOptions.Mandatory,
		sendOptions.Immediate,
		publishing,
	); err != nil {
		return errors.Wrap(err, "sending out pkg")
	}

	return nil
}

func (t *amqpTransport) Consume(ctx context.Context, queues []transport.Queue, options ...transport.ConsumeOpts) (<-chan transport.IncomingPkg, error) {
	t.mu.Lock()
	conn := t.connection
	t.mu.Unlock()

	if conn == nil {
		return nil, errors.New("connection is nil")
	}

	consumingChannel, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating consuming channel")
	}

	consumeOptions := &ConsumeOptions{}

	for _, opt := range options {
		if err := opt(consumeOptions); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if consumeOptions.PrefetchCount > 0 {
		if err := consumingChannel.Qos(int(consumeOptions.PrefetchCount), 0, false); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	income := make(chan transport.IncomingPkg)

	consumersWait := &sync.WaitGroup{}

	consumersCtx, cancelConsumers := context.WithCancel(ctx)

	for _, q := range queues {
		consumingCh, err := consumingChannel.Consume(
			q.Name(),
			q.Name(),
			false,
			consumeOptions.Exclusive,
			consumeOptions.NoLocal,
			consumeOptions.NoWait,
			nil,
		)

		if err != nil {
			cancelConsumers() // stops goroutines started by previous iterations
			return nil, errors.Wrapf(err, "consuming %s", q.Name())
		}

		consumersWait.Add(1)

		go func(queue transport.Queue, deliveries <-chan amqp.Delivery) {
			defer consumersWait.Done()

			defer func() {
				if err := consumingChannel.Cancel(queue.Name(), true); err != nil {
					t.logger.Logf(log.ErrorLevel, "error canceling consumer %s. %s", queue.Name(), err)
				} else {
					t.logger.Logf(log.InfoLevel, "canceled consumer %s", queue.Name())
				}
			}()

			for {
				select {
				case msg, open := <-deliveries:
					if !open {
						t.logger.Logf(log.WarnLevel, "amqp consumer closed channel for queue %s", queue.Name())
						return
					}

					received := msg
					select {
					case income <- &inAmqpPkg{queue: queue.Name(), receivedAt: time.Now(), delivery: delivery{msg: &received}}:
					case <-consumersCtx.Done():
						return
					}
				case <-consumersCtx.Done():
					t.logger.Logf(log.InfoLevel, "canceled context. Stopped consuming queue %s", queue.Name())
					return
				}
			}
		}(q, consumingCh)
	}

	go func() {
		consumersWait.Wait()
		cancelConsumers()
		close(income)

		if err := consumingChannel.Close(); err != nil {
			t.logger.Logf(log.ErrorLevel, "error closing amqp channel. %s", err)
		} else {
			t.logger.Log(log.InfoLevel, "closed consumer channel")
		}
	}()

	return income, nil
}

func (t *amqpTransport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connection == nil {
		return nil
	}

	if t.publishingChannel != nil {
		if err := t.publishingChannel.Close(); err != nil {
			return errors.Wrap(err, "closing publishing channel")
		}
		t.publishingChannel = nil
	}

	if err := t.connection.Close(); err != nil {
		return errors.Wrap(err, "closing connection")
	}

	t.connection = nil

	return nil
}

// channel lazily opens the channel used for topology and publishing
func (t *amqpTransport) channel() (AmqpChannel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connection == nil {
		return nil, errors.New("connection is nil")
	}

	if t.publishingChannel != nil {
		return t.publishingChannel, nil
	}

	ch, err := t.connection.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating publishing channel")
	}

	t.publishingChannel = ch

	return ch, nil
}
