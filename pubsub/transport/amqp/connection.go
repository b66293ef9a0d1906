package amqp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultReconnectDelay = time.Second * 3
	reconnectCount        = 20
)

type dialFunc func(url string) (UnderlyingConnection, error)

func amqpDial(url string) (UnderlyingConnection, error) {
	return amqp.Dial(url)
}

// Connection keeps an underlying amqp connection alive, it redials when the broker drops it
type Connection struct {
	mu             sync.RWMutex
	underlying     UnderlyingConnection
	logger         log.Logger
	reconnectDelay time.Duration
	closed         int32
}

// Dial connects to the broker and starts watching the connection
func Dial(url string, logger log.Logger) (*Connection, error) {
	return dial(url, amqpDial, defaultReconnectDelay, logger)
}

func dial(url string, dialer dialFunc, reconnectDelay time.Duration, logger log.Logger) (*Connection, error) {
	underlying, err := dialer(url)
	if err != nil {
		return nil, errors.Wrap(err, "dialing amqp")
	}

	conn := NewReconnectConnection(logger, underlying, reconnectDelay)
	go conn.watch(url, dialer)

	return conn, nil
}

func NewReconnectConnection(logger log.Logger, underlying UnderlyingConnection, reconnectDelay time.Duration) *Connection {
	return &Connection{logger: logger, underlying: underlying, reconnectDelay: reconnectDelay}
}

func (c *Connection) watch(url string, dialer dialFunc) {
	for {
		reason, ok := <-c.current().NotifyClose(make(chan *amqp.Error, 1))
		if !ok || c.isClosedByUser() {
			c.logger.Log(log.InfoLevel, "connection closed explicitly")
			return
		}

		c.logger.Logf(log.WarnLevel, "connection closed, reason: %v", reason)

		var reconnected bool
		for attempt := 0; attempt < reconnectCount; attempt++ {
			time.Sleep(c.reconnectDelay)

			underlying, err := dialer(url)
			if err != nil {
				c.logger.Logf(log.ErrorLevel, "reconnect failed, err: %v", err)
				continue
			}

			c.mu.Lock()
			c.underlying = underlying
			c.mu.Unlock()

			c.logger.Log(log.InfoLevel, "successfully reconnected amqp connection")
			reconnected = true
			break
		}

		if !reconnected {
			c.logger.Logf(log.ErrorLevel, "reached limit of reconnects %d", reconnectCount)
			return
		}
	}
}

func (c *Connection) current() UnderlyingConnection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.underlying
}

func (c *Connection) isClosedByUser() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Connection) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	return c.current().Close()
}

func (c *Connection) IsClosed() bool {
	return c.current().IsClosed()
}

// Channel opens a channel which is reopened each time the broker closes it
func (c *Connection) Channel() (AmqpChannel, error) {
	ch, err := c.current().Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating channel")
	}

	channel := &Channel{
		ch:             ch,
		logger:         c.logger,
		reconnectDelay: c.reconnectDelay,
	}

	go func() {
		for {
			reason, ok := <-channel.NotifyClose(make(chan *amqp.Error, 1))
			if !ok || channel.IsClosed() {
				c.logger.Log(log.DebugLevel, "channel closed")
				return
			}
			c.logger.Logf(log.WarnLevel, "channel closed, reason: %v", reason)

			for !channel.IsClosed() {
				time.Sleep(c.reconnectDelay)

				ch, err := c.current().Channel()
				if err == nil {
					channel.replace(ch)
					break
				}

				c.logger.Logf(log.ErrorLevel, "channel recreate failed, err: %v", err)
			}
		}
	}()

	return channel, nil
}

// Channel wraps amqp channel and survives its reopening
type Channel struct {
	mu             sync.RWMutex
	ch             AmqpChannel
	closed         int32
	logger         log.Logger
	reconnectDelay time.Duration
}

func (ch *Channel) current() AmqpChannel {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.ch
}

func (ch *Channel) replace(c AmqpChannel) {
	ch.mu.Lock()
	ch.ch = c
	ch.mu.Unlock()
}

// IsClosed indicates closed by developer
func (ch *Channel) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) == 1
}

// Close ensures closed flag set
func (ch *Channel) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return amqp.ErrClosed
	}

	return ch.current().Close()
}

func (ch *Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return ch.current().ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (ch *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return ch.current().QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (ch *Channel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return ch.current().QueueBind(name, key, exchange, noWait, args)
}

func (ch *Channel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return ch.current().PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

func (ch *Channel) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	return ch.current().NotifyClose(c)
}

func (ch *Channel) Qos(prefetchCount, prefetchSize int, global bool) error {
	return ch.current().Qos(prefetchCount, prefetchSize, global)
}

func (ch *Channel) Cancel(consumer string, noWait bool) error {
	return ch.current().Cancel(consumer, noWait)
}

// Consume wraps amqp.Channel.Consume, the returned deliveries end only when the channel is closed by developer
func (ch *Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)

	go func() {
		defer close(deliveries)

		var failedCount uint

		for {
			d, err := ch.current().Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
			if err != nil {
				ch.logger.Logf(log.ErrorLevel, "consume failed, err: %v", err)

				if failedCount >= reconnectCount {
					ch.logger.Logf(log.ErrorLevel, "reached limit of reconnects %d", reconnectCount)
					return
				}

				failedCount++
				time.Sleep(ch.reconnectDelay)
				ch.logger.Logf(log.DebugLevel, "retrying to reconnect consumer %s", consumer)

				continue
			}

			failedCount = 0
			ch.logger.Logf(log.DebugLevel, "started consuming %s", consumer)

			for msg := range d {
				deliveries <- msg
			}

			if ch.IsClosed() {
				return
			}

			// broker closed the channel, give the watcher time to reopen it
			time.Sleep(ch.reconnectDelay)

			if ch.IsClosed() {
				return
			}
		}
	}()

	return deliveries, nil
}
