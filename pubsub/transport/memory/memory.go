package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
)

const defaultQueueSize = 1024

// NewTransport creates an in-process broker. Each queue bound to a topic gets its own copy of every package sent to the topic.
func NewTransport() *Transport {
	return &Transport{
		topics: map[string]map[string]struct{}{},
		queues: map[string]chan *inMemoryPkg{},
	}
}

type Transport struct {
	mu     sync.RWMutex
	topics map[string]map[string]struct{}
	queues map[string]chan *inMemoryPkg
	offset int64
}

func (t *Transport) Connect(context.Context) error {
	return nil
}

func (t *Transport) Disconnect(context.Context) error {
	return nil
}

func (t *Transport) CreateTopic(ctx context.Context, topic transport.Topic) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.topics[topic.Name()]; !exists {
		t.topics[topic.Name()] = map[string]struct{}{}
	}

	return nil
}

func (t *Transport) CreateQueue(ctx context.Context, queue transport.Queue, queueBind ...transport.QueueBind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.queues[queue.Name()]; !exists {
		t.queues[queue.Name()] = make(chan *inMemoryPkg, defaultQueueSize)
	}

	for _, qb := range queueBind {
		bound, exists := t.topics[qb.DestinationTopic()]
		if !exists {
			return errors.Errorf("topic %s does not exist", qb.DestinationTopic())
		}
		bound[queue.Name()] = struct{}{}
	}

	return nil
}

func (t *Transport) Send(ctx context.Context, outboundPkg transport.OutboundPkg, options ...transport.SendOpts) error {
	topic := outboundPkg.Destination().DestinationTopic

	t.mu.RLock()
	bound, exists := t.topics[topic]
	if !exists {
		t.mu.RUnlock()
		return errors.Errorf("topic %s does not exist", topic)
	}

	targets := make([]chan *inMemoryPkg, 0, len(bound))
	for queueName := range bound {
		targets = append(targets, t.queues[queueName])
	}
	t.mu.RUnlock()

	for _, target := range targets {
		headers := make(map[string]interface{}, len(outboundPkg.Headers()))
		for k, v := range outboundPkg.Headers() {
			headers[k] = v
		}

		pkg := &inMemoryPkg{
			topic:       topic,
			key:         outboundPkg.Key(),
			payload:     outboundPkg.Payload(),
			headers:     headers,
			publishedAt: time.Now(),
			offset:      atomic.AddInt64(&t.offset, 1),
			queue:       target,
		}

		select {
		case target <- pkg:
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "sending to %s", topic)
		}
	}

	return nil
}

func (t *Transport) Consume(ctx context.Context, queues []transport.Queue, options ...transport.ConsumeOpts) (<-chan transport.IncomingPkg, error) {
	sources := make([]chan *inMemoryPkg, 0, len(queues))

	t.mu.RLock()
	for _, q := range queues {
		source, exists := t.queues[q.Name()]
		if !exists {
			t.mu.RUnlock()
			return nil, errors.Errorf("queue %s does not exist", q.Name())
		}
		sources = append(sources, source)
	}
	t.mu.RUnlock()

	income := make(chan transport.IncomingPkg)
	consumersWait := &sync.WaitGroup{}

	for _, source := range sources {
		consumersWait.Add(1)
		go func(source chan *inMemoryPkg) {
			defer consumersWait.Done()
			for {
				select {
				case pkg := <-source:
					pkg.receivedAt = time.Now()
					select {
					case income <- pkg:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(source)
	}

	go func() {
		consumersWait.Wait()
		close(income)
	}()

	return income, nil
}

// Pending returns the number of packages waiting in the queue
func (t *Transport) Pending(queue string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.queues[queue])
}

type inMemoryPkg struct {
	topic       string
	key         string
	payload     []byte
	headers     map[string]interface{}
	publishedAt time.Time
	receivedAt  time.Time
	offset      int64
	queue       chan *inMemoryPkg
	acked       int32
}

func (i *inMemoryPkg) UID() string {
	if uid, ok := i.headers["uid"].(string); ok {
		return uid
	}
	return ""
}

func (i *inMemoryPkg) Origin() string {
	return i.topic
}

func (i *inMemoryPkg) Key() string {
	return i.key
}

func (i *inMemoryPkg) Payload() []byte {
	return i.payload
}

func (i *inMemoryPkg) Headers() map[string]interface{} {
	return i.headers
}

func (i *inMemoryPkg) Partition() int {
	return 0
}

func (i *inMemoryPkg) Offset() int64 {
	return i.offset
}

func (i *inMemoryPkg) Ack(options ...transport.AcknowledgmentOption) error {
	atomic.StoreInt32(&i.acked, 1)
	return nil
}

// Nack puts the package back to its queue when requeue option is passed
func (i *inMemoryPkg) Nack(options ...transport.AcknowledgmentOption) error {
	opts := map[string]interface{}{}
	for _, o := range options {
		o(opts)
	}

	if requeue, _ := opts["requeue"].(bool); requeue {
		select {
		case i.queue <- i:
		default:
			return errors.New("queue is full")
		}
	}

	return nil
}

func (i *inMemoryPkg) Reject(options ...transport.AcknowledgmentOption) error {
	return i.Nack(options...)
}

func (i *inMemoryPkg) Acked() bool {
	return atomic.LoadInt32(&i.acked) == 1
}

func (i *inMemoryPkg) ReceivedAt() time.Time {
	return i.receivedAt
}

func (i *inMemoryPkg) PublishedAt() time.Time {
	return i.publishedAt
}

func WithRequeue() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["requeue"] = true
	}
}
