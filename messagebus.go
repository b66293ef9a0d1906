package enrollsaga

import (
	"context"
	"sort"
	"sync"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/pubsub/dispatcher"
	"github.com/go-foreman/enrollsaga/pubsub/endpoint"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/message/execution"
	"github.com/go-foreman/enrollsaga/pubsub/subscriber"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/go-foreman/enrollsaga/runtime/scheme"
	"github.com/pkg/errors"
)

// bindAll matches every routing key of a topic exchange, transports without routing keys ignore it
const bindAll = "#"

// Component allows to wrap and prepare booting of your component, which will be initialized by MessageBus
type Component interface {
	Init(b *MessageBus) error
}

// ConfigOption allows to configure MessageBus's container
type ConfigOption func(o *container)

type container struct {
	messageExecutionCtxFactory execution.MessageExecutionCtxFactory
	messagesDispatcher         dispatcher.Dispatcher
	router                     endpoint.Router
	marshaller                 message.Marshaller
	processor                  subscriber.Processor
	scheme                     scheme.KnownTypesRegistry
	subscriber                 subscriber.Subscriber
	subscriberOpts             []subscriber.Opt
	components                 []Component
}

// WithComponents specifies a list of additional components you want to be registered in MessageBus
func WithComponents(components ...Component) ConfigOption {
	return func(c *container) {
		c.components = append(c.components, components...)
	}
}

// WithRouter allows to provide another endpoint.Router implementation
func WithRouter(router endpoint.Router) ConfigOption {
	return func(c *container) {
		c.router = router
	}
}

// WithDispatcher allows to provide another dispatcher.Dispatcher implementation
func WithDispatcher(dispatcher dispatcher.Dispatcher) ConfigOption {
	return func(c *container) {
		c.messagesDispatcher = dispatcher
	}
}

// WithMarshaller allows to provide another message.Marshaller implementation
func WithMarshaller(marshaller message.Marshaller) ConfigOption {
	return func(c *container) {
		c.marshaller = marshaller
	}
}

// WithSchemeRegistry allows to specify scheme.KnownTypesRegistry
func WithSchemeRegistry(scheme scheme.KnownTypesRegistry) ConfigOption {
	return func(c *container) {
		c.scheme = scheme
	}
}

// WithMessageExecutionFactory allows to provide own execution.MessageExecutionCtxFactory
func WithMessageExecutionFactory(factory execution.MessageExecutionCtxFactory) ConfigOption {
	return func(c *container) {
		c.messageExecutionCtxFactory = factory
	}
}

// WithSubscriber replaces the default subscriber
func WithSubscriber(s subscriber.Subscriber) ConfigOption {
	return func(c *container) {
		c.subscriber = s
	}
}

// WithSubscriberOpts configures the default subscriber, e.g. retries and the dead letter failure handler
func WithSubscriberOpts(opts ...subscriber.Opt) ConfigOption {
	return func(c *container) {
		c.subscriberOpts = append(c.subscriberOpts, opts...)
	}
}

// MessageBus is a main component, kind of a container which aggregates other components.
// It routes outgoing messages to topics and consumes queues bound to topics.
type MessageBus struct {
	messagesDispatcher dispatcher.Dispatcher
	router             endpoint.Router
	scheme             scheme.KnownTypesRegistry
	marshaller         message.Marshaller
	transport          transport.Transport
	subscriber         subscriber.Subscriber
	logger             log.Logger

	mu        sync.Mutex
	topics    map[string]struct{}
	endpoints map[string]endpoint.Endpoint
	queues    map[string][]string
}

// NewMessageBus constructs MessageBus on top of transport. Options replace implementations of its parts.
func NewMessageBus(logger log.Logger, t transport.Transport, configOpts ...ConfigOption) (*MessageBus, error) {
	if t == nil {
		return nil, errors.New("transport is nil")
	}

	opts := &container{}
	for _, config := range configOpts {
		config(opts)
	}

	if opts.scheme == nil {
		opts.scheme = scheme.NewKnownTypesRegistry()
	}

	if opts.messagesDispatcher == nil {
		opts.messagesDispatcher = dispatcher.NewDispatcher()
	}

	if opts.router == nil {
		opts.router = endpoint.NewRouter()
	}

	if opts.messageExecutionCtxFactory == nil {
		opts.messageExecutionCtxFactory = execution.NewMessageExecutionCtxFactory(opts.router, logger)
	}

	if opts.marshaller == nil {
		opts.marshaller = message.NewJsonMarshaller(opts.scheme)
	}

	if opts.processor == nil {
		opts.processor = subscriber.NewMessageProcessor(opts.marshaller, opts.messageExecutionCtxFactory, opts.messagesDispatcher, logger)
	}

	if opts.subscriber == nil {
		opts.subscriber = subscriber.NewSubscriber(t, opts.processor, logger, opts.subscriberOpts...)
	}

	b := &MessageBus{
		messagesDispatcher: opts.messagesDispatcher,
		router:             opts.router,
		scheme:             opts.scheme,
		marshaller:         opts.marshaller,
		transport:          t,
		subscriber:         opts.subscriber,
		logger:             logger,
		topics:             map[string]struct{}{},
		endpoints:          map[string]endpoint.Endpoint{},
		queues:             map[string][]string{},
	}

	if err := b.Use(opts.components...); err != nil {
		return nil, err
	}

	return b, nil
}

// Use initializes components that need the bus after it was constructed, e.g. services that send through it
func (b *MessageBus) Use(components ...Component) error {
	for _, component := range components {
		if err := component.Init(b); err != nil {
			return errors.Wrapf(err, "initializing component %T", component)
		}
	}
	return nil
}

// RouteToTopic sends objects of the given types to topic. One endpoint is created per topic.
func (b *MessageBus) RouteToTopic(topic string, objs ...message.Object) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.topics[topic] = struct{}{}

	endp, exists := b.endpoints[topic]
	if !exists {
		endp = endpoint.NewTransportEndpoint(topic, b.transport, transport.DeliveryDestination{DestinationTopic: topic}, b.marshaller)
		b.endpoints[topic] = endp
	}

	b.router.RegisterEndpoint(endp, objs...)
}

// ConsumeTopics binds queue to topics, the queue is consumed by Run
func (b *MessageBus) ConsumeTopics(queue string, topics ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topic := range topics {
		b.topics[topic] = struct{}{}
		b.queues[queue] = append(b.queues[queue], topic)
	}
}

// DeclareTopics makes sure topics exist on Connect even if nothing is routed to them, e.g. dead letter topics
func (b *MessageBus) DeclareTopics(topics ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topic := range topics {
		b.topics[topic] = struct{}{}
	}
}

// Topics returns every topic known to the bus, sorted
func (b *MessageBus) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		res = append(res, topic)
	}
	sort.Strings(res)

	return res
}

// Connect connects the transport and declares topics and queues
func (b *MessageBus) Connect(ctx context.Context) error {
	if err := b.transport.Connect(ctx); err != nil {
		return errors.Wrap(err, "connecting transport")
	}

	for _, topic := range b.Topics() {
		if err := b.transport.CreateTopic(ctx, transport.NewTopic(topic)); err != nil {
			return errors.Wrapf(err, "creating topic %s", topic)
		}
	}

	for _, queue := range b.queueNames() {
		b.mu.Lock()
		topics := b.queues[queue]
		b.mu.Unlock()

		binds := make([]transport.QueueBind, len(topics))
		for i, topic := range topics {
			binds[i] = transport.NewQueueBind(topic, bindAll)
		}

		if err := b.transport.CreateQueue(ctx, transport.NewQueue(queue), binds...); err != nil {
			return errors.Wrapf(err, "creating queue %s", queue)
		}
	}

	b.logger.Logf(log.InfoLevel, "message bus connected, topics: %v", b.Topics())

	return nil
}

// Run consumes every queue bound with ConsumeTopics until ctx is done
func (b *MessageBus) Run(ctx context.Context) error {
	names := b.queueNames()
	if len(names) == 0 {
		return errors.New("no queues to consume, bind one with ConsumeTopics")
	}

	queues := make([]transport.Queue, len(names))
	for i, name := range names {
		queues[i] = transport.NewQueue(name)
	}

	return b.subscriber.Run(ctx, queues...)
}

// Send routes msg to the endpoints registered for its payload type. A message without a route is an error,
// publishers rely on it reaching the broker.
func (b *MessageBus) Send(ctx context.Context, msg *message.OutcomingMessage) error {
	endpoints := b.router.Route(msg.Payload())
	if len(endpoints) == 0 {
		return errors.Errorf("no endpoints defined for message %s of type %T", msg.UID(), msg.Payload())
	}

	for _, endp := range endpoints {
		if err := endp.Send(ctx, msg); err != nil {
			return errors.Wrapf(err, "sending message %s to %s", msg.UID(), endp.Name())
		}
	}

	return nil
}

func (b *MessageBus) queueNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := make([]string, 0, len(b.queues))
	for name := range b.queues {
		res = append(res, name)
	}
	sort.Strings(res)

	return res
}

// Dispatcher returns an instance of dispatcher.Dispatcher
func (b *MessageBus) Dispatcher() dispatcher.Dispatcher {
	return b.messagesDispatcher
}

// Router returns an instance of endpoint.Router
func (b *MessageBus) Router() endpoint.Router {
	return b.router
}

// SchemeRegistry returns an instance of current scheme.KnownTypesRegistry which should contain all the types of commands and events MB works with
func (b *MessageBus) SchemeRegistry() scheme.KnownTypesRegistry {
	return b.scheme
}

func (b *MessageBus) Marshaller() message.Marshaller {
	return b.marshaller
}

func (b *MessageBus) Transport() transport.Transport {
	return b.transport
}

// Subscriber returns an instance of subscriber.Subscriber which controls the main flow of messages
func (b *MessageBus) Subscriber() subscriber.Subscriber {
	return b.subscriber
}

// Logger returns an instance of logger
func (b *MessageBus) Logger() log.Logger {
	return b.logger
}
