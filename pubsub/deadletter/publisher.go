package deadletter

import (
	"context"
	"sync"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultDropped = "dropped"
)

type Config struct {
	// PublishTimeout bounds one publish to the dead letter topic
	PublishTimeout time.Duration
	// MaxInFlight limits concurrent publishes, HandleFailure blocks when it is reached
	MaxInFlight int
}

var DefaultConfig = Config{
	PublishTimeout: time.Second * 10,
	MaxInFlight:    64,
}

type Opt func(p *Publisher)

func WithConfig(c Config) Opt {
	return func(p *Publisher) {
		p.config = c
	}
}

func WithMetrics(m *metrics.Metrics) Opt {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock replaces time.Now used for the capture timestamp
func WithClock(now func() time.Time) Opt {
	return func(p *Publisher) {
		p.now = now
	}
}

// Publisher republishes packages that permanently failed to their dead letter topic.
// It implements subscriber.FailureHandler.
type Publisher struct {
	transport transport.Transport
	resolver  TopicResolver
	logger    log.Logger
	metrics   *metrics.Metrics
	config    Config
	now       func() time.Time

	inFlight chan struct{}
	wg       sync.WaitGroup
}

func NewPublisher(t transport.Transport, resolver TopicResolver, logger log.Logger, opts ...Opt) *Publisher {
	p := &Publisher{
		transport: t,
		resolver:  resolver,
		logger:    logger,
		config:    DefaultConfig,
		now:       time.Now,
	}

	for _, o := range opts {
		o(p)
	}

	if p.config.MaxInFlight < 1 {
		p.config.MaxInFlight = 1
	}

	p.inFlight = make(chan struct{}, p.config.MaxInFlight)

	return p
}

// HandleFailure builds a Record and publishes it in background. Unmapped topics are dropped, so the package is acked either way.
func (p *Publisher) HandleFailure(ctx context.Context, inPkg transport.IncomingPkg, cause error, attempts int) error {
	record := NewRecord(inPkg, cause, attempts, p.now())

	dlt, ok := p.resolver.Resolve(record.OriginalTopic)
	if !ok {
		p.logger.Logf(log.ErrorLevel, "no dead letter topic mapped for %s, dropping package %s. %s", record.OriginalTopic, inPkg.UID(), record.ExceptionMessage)
		p.metrics.DeadLetter(record.OriginalTopic, resultDropped)
		return nil
	}

	payload, err := record.Marshal()
	if err != nil {
		p.logger.Logf(log.ErrorLevel, "dropping package %s from %s. %s", inPkg.UID(), record.OriginalTopic, err)
		p.metrics.DeadLetter(record.OriginalTopic, resultDropped)
		return nil
	}

	headers := map[string]interface{}{
		"uid":           inPkg.UID(),
		"originalTopic": record.OriginalTopic,
	}

	if traceID, ok := inPkg.Headers()["traceId"]; ok {
		headers["traceId"] = traceID
	}

	outPkg := transport.NewOutboundPkg(payload, "application/json", transport.DeliveryDestination{DestinationTopic: dlt}, headers, record.OriginalKey)

	select {
	case p.inFlight <- struct{}{}:
	case <-ctx.Done():
		p.metrics.DeadLetter(record.OriginalTopic, resultFailure)
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.inFlight
			p.wg.Done()
		}()
		p.publish(record.OriginalTopic, dlt, inPkg.UID(), outPkg)
	}()

	return nil
}

func (p *Publisher) publish(originalTopic, dlt, uid string, outPkg transport.OutboundPkg) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.transport.Send(ctx, outPkg); err != nil {
		p.logger.Logf(log.ErrorLevel, "failed to publish package %s to dead letter topic %s. %s", uid, dlt, err)
		p.metrics.DeadLetter(originalTopic, resultFailure)
		return
	}

	p.logger.Logf(log.InfoLevel, "published package %s to dead letter topic %s", uid, dlt)
	p.metrics.DeadLetter(originalTopic, resultSuccess)
}

// Wait blocks until every started publish is finished
func (p *Publisher) Wait() {
	p.wg.Wait()
}
