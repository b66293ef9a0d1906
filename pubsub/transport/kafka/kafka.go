package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type readerFactory func(topic string) Reader
type topicCreator func(ctx context.Context, topics ...kafka.TopicConfig) error

// NewTransport creates kafka transport. A queue is a subscription of the configured consumer group to the bound topics.
func NewTransport(config Config, logger log.Logger) transport.Transport {
	t := &kafkaTransport{
		config:   config,
		logger:   logger,
		bindings: map[string][]string{},
	}

	t.newReader = func(topic string) Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  config.Brokers,
			Topic:    topic,
			GroupID:  config.GroupID,
			MinBytes: config.MinBytes,
			MaxBytes: config.MaxBytes,
			MaxWait:  config.MaxWait,
		})
	}
	t.newWriter = func() Writer {
		return &kafka.Writer{
			Addr:                   kafka.TCP(config.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
	}
	t.createTopics = t.createTopicsOnController

	return t
}

type kafkaTransport struct {
	config       Config
	logger       log.Logger
	newReader    readerFactory
	newWriter    func() Writer
	createTopics topicCreator

	mu       sync.Mutex
	writer   Writer
	bindings map[string][]string
}

func (t *kafkaTransport) Connect(ctx context.Context) error {
	if len(t.config.Brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer == nil {
		t.writer = t.newWriter()
	}

	return nil
}

func (t *kafkaTransport) CreateTopic(ctx context.Context, topic transport.Topic) error {
	if err := t.createTopics(ctx, kafka.TopicConfig{
		Topic:             topic.Name(),
		NumPartitions:     t.config.NumPartitions,
		ReplicationFactor: t.config.ReplicationFactor,
	}); err != nil {
		return errors.Wrapf(err, "creating topic %s", topic.Name())
	}

	return nil
}

// CreateQueue remembers which topics the queue consumes. A queue without binds consumes the topic of the same name.
func (t *kafkaTransport) CreateQueue(ctx context.Context, queue transport.Queue, queueBind ...transport.QueueBind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	topics := t.bindings[queue.Name()]
	for _, qb := range queueBind {
		topics = append(topics, qb.DestinationTopic())
	}

	t.bindings[queue.Name()] = topics

	return nil
}

func (t *kafkaTransport) Send(ctx context.Context, outboundPkg transport.OutboundPkg, options ...transport.SendOpts) error {
	t.mu.Lock()
	writer := t.writer
	t.mu.Unlock()

	if writer == nil {
		return errors.New("writer is nil. Use transport.Connect first")
	}

	msg := kafka.Message{
		Topic: outboundPkg.Destination().DestinationTopic,
		Value: outboundPkg.Payload(),
		Time:  time.Now().UTC(),
	}

	if key := outboundPkg.Key(); key != "" {
		msg.Key = []byte(key)
	}

	for k, v := range outboundPkg.Headers() {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(headerValue(v))})
	}

	if contentType := outboundPkg.ContentType(); contentType != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "contentType", Value: []byte(contentType)})
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "writing message to %s", msg.Topic)
	}

	return nil
}

func (t *kafkaTransport) Consume(ctx context.Context, queues []transport.Queue, options ...transport.ConsumeOpts) (<-chan transport.IncomingPkg, error) {
	var topics []string

	t.mu.Lock()
	for _, q := range queues {
		bound := t.bindings[q.Name()]
		if len(bound) == 0 {
			bound = []string{q.Name()}
		}
		topics = append(topics, bound...)
	}
	t.mu.Unlock()

	if len(topics) == 0 {
		return nil, errors.New("no topics to consume")
	}

	income := make(chan transport.IncomingPkg)
	consumersWait := &sync.WaitGroup{}

	for _, topic := range topics {
		reader := t.newReader(topic)
		consumersWait.Add(1)

		go func(topic string, reader Reader) {
			defer consumersWait.Done()
			offsets := newOffsetTracker(reader)
			defer func() {
				if err := reader.Close(); err != nil {
					t.logger.Logf(log.ErrorLevel, "error closing reader of %s. %s", topic, err)
				}
			}()

			for {
				msg, err := reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						t.logger.Logf(log.InfoLevel, "canceled context. Stopped consuming topic %s", topic)
						return
					}

					t.logger.Logf(log.ErrorLevel, "error fetching message from %s. %s", topic, err)

					select {
					case <-ctx.Done():
						return
					case <-time.After(time.Second):
					}

					continue
				}

				offsets.track(msg)

				select {
				case income <- newInKafkaPkg(msg, offsets):
				case <-ctx.Done():
					return
				}
			}
		}(topic, reader)
	}

	go func() {
		consumersWait.Wait()
		close(income)
	}()

	return income, nil
}

func (t *kafkaTransport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer == nil {
		return nil
	}

	if err := t.writer.Close(); err != nil {
		return errors.Wrap(err, "closing kafka writer")
	}

	t.writer = nil

	return nil
}

func (t *kafkaTransport) createTopicsOnController(ctx context.Context, topics ...kafka.TopicConfig) error {
	conn, err := kafka.DialContext(ctx, "tcp", t.config.Brokers[0])
	if err != nil {
		return errors.WithStack(err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return errors.WithStack(err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return errors.WithStack(err)
	}
	defer controllerConn.Close()

	return controllerConn.CreateTopics(topics...)
}

func headerValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int:
		return strconv.Itoa(val)
	case fmt.Stringer:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
