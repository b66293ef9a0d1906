package saga

import (
	"context"
	"sync"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/saga/publisher.go -package saga . EventPublisher

// EventPublisher hands saga events to the bus. Publishing never fails from the caller's point of view.
type EventPublisher interface {
	Publish(ctx context.Context, ev *SagaEvent)
}

// Sender is satisfied by endpoint.Endpoint and by the message bus
type Sender interface {
	Send(ctx context.Context, msg *message.OutcomingMessage) error
}

type AsyncPublisherConfig struct {
	// BufferSize is how many events may wait for sending, newer events are dropped when it is full
	BufferSize int
	// SendTimeout bounds sending of one event
	SendTimeout time.Duration
}

var DefaultAsyncPublisherConfig = AsyncPublisherConfig{
	BufferSize:  1024,
	SendTimeout: time.Second * 5,
}

type AsyncPublisherOpt func(p *AsyncPublisher)

func WithPublisherConfig(c AsyncPublisherConfig) AsyncPublisherOpt {
	return func(p *AsyncPublisher) {
		p.config = c
	}
}

func WithPublisherMetrics(m *metrics.Metrics) AsyncPublisherOpt {
	return func(p *AsyncPublisher) {
		p.metrics = m
	}
}

// AsyncPublisher sends events from a single goroutine in the order they were published
type AsyncPublisher struct {
	sender  Sender
	logger  log.Logger
	metrics *metrics.Metrics
	config  AsyncPublisherConfig

	mu     sync.RWMutex
	closed bool
	events chan *SagaEvent
	done   chan struct{}
}

func NewAsyncPublisher(sender Sender, logger log.Logger, opts ...AsyncPublisherOpt) *AsyncPublisher {
	p := &AsyncPublisher{
		sender: sender,
		logger: logger,
		config: DefaultAsyncPublisherConfig,
		done:   make(chan struct{}),
	}

	for _, o := range opts {
		o(p)
	}

	if p.config.BufferSize < 1 {
		p.config.BufferSize = 1
	}

	p.events = make(chan *SagaEvent, p.config.BufferSize)

	go p.run()

	return p
}

func (p *AsyncPublisher) Publish(ctx context.Context, ev *SagaEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Logf(log.WarnLevel, "publisher is closed, dropping event %s %s of saga %s", ev.EventType, ev.EventID, ev.SagaID)
		p.metrics.EventPublished("dropped")
		return
	}

	select {
	case p.events <- ev:
	default:
		p.logger.Logf(log.WarnLevel, "publish buffer is full, dropping event %s %s of saga %s", ev.EventType, ev.EventID, ev.SagaID)
		p.metrics.EventPublished("dropped")
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for ev := range p.events {
		if err := p.send(ev); err != nil {
			p.logger.Logf(log.ErrorLevel, "failed to publish event %s %s of saga %s. %s", ev.EventType, ev.EventID, ev.SagaID, err)
			p.metrics.EventPublished("failure")
			continue
		}
		p.metrics.EventPublished("success")
	}
}

func (p *AsyncPublisher) send(ev *SagaEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.SendTimeout)
	defer cancel()

	headers := message.Headers{}
	headers.SetSagaUID(ev.SagaID)

	if err := p.sender.Send(ctx, message.NewOutcomingMessage(ev, message.WithHeaders(headers), message.WithTraceID(ev.SagaID))); err != nil {
		return errors.Wrapf(err, "sending event %s", ev.EventID)
	}

	return nil
}

// Close stops accepting events and waits until buffered ones are sent or ctx is done
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for buffered events")
	}
}
