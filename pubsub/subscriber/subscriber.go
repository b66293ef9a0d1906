package subscriber

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	puberrors "github.com/go-foreman/enrollsaga/pubsub/errors"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
)

// Subscriber starts listening for queues and processes messages
type Subscriber interface {
	// Run listens queues for packages and processes them. Gracefully shuts down either on os.Signal or ctx.Done() or Stop()
	Run(ctx context.Context, queues ...transport.Queue) error
	// Stop gracefully stops subscriber and calls transport.Disconnect().
	Stop(ctx context.Context) error
}

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/subscriber/failure.go -package subscriber . FailureHandler

// FailureHandler receives packages that failed processing after the retry budget was spent or that can't be retried.
// A nil error means the failure is handled and the package is acked.
type FailureHandler interface {
	HandleFailure(ctx context.Context, inPkg transport.IncomingPkg, cause error, attempts int) error
}

// Config allows to configure subscriber workflow
type Config struct {
	// WorkersCount specifies a number workers that process packages
	WorkersCount uint
	// PackageProcessingMaxTime amount of time for one attempt to process a package
	PackageProcessingMaxTime time.Duration
	// GracefulShutdownTimeout amount of time for graceful shutdown
	GracefulShutdownTimeout time.Duration
	// MaxRetries is how many times a failed package is processed again before it goes to the FailureHandler
	MaxRetries uint
	// RetryBackoff is a pause between attempts, it doubles after each attempt
	RetryBackoff time.Duration
}

var DefaultConfig = Config{
	WorkersCount:             10,
	PackageProcessingMaxTime: time.Second * 60,
	GracefulShutdownTimeout:  time.Second * 61,
	MaxRetries:               3,
	RetryBackoff:             time.Millisecond * 200,
}

type subscriberOpts struct {
	config         *Config
	failureHandler FailureHandler
	consumeOpts    []transport.ConsumeOpts
	metrics        *metrics.Metrics
}

type Opt func(o *subscriberOpts)

func WithConfig(c *Config) Opt {
	return func(o *subscriberOpts) {
		o.config = c
	}
}

func WithFailureHandler(h FailureHandler) Opt {
	return func(o *subscriberOpts) {
		o.failureHandler = h
	}
}

// WithConsumeOpts passes transport specific options to Consume, e.g. amqp prefetch count
func WithConsumeOpts(opts ...transport.ConsumeOpts) Opt {
	return func(o *subscriberOpts) {
		o.consumeOpts = append(o.consumeOpts, opts...)
	}
}

func WithMetrics(m *metrics.Metrics) Opt {
	return func(o *subscriberOpts) {
		o.metrics = m
	}
}

// NewSubscriber creates default subscriber implementation
func NewSubscriber(transport transport.Transport, processor Processor, logger log.Logger, opts ...Opt) Subscriber {
	sOpts := &subscriberOpts{}

	for _, o := range opts {
		o(sOpts)
	}

	config := DefaultConfig
	if sOpts.config != nil {
		config = *sOpts.config
	}

	return &subscriber{
		transport:      transport,
		logger:         logger,
		processor:      processor,
		config:         config,
		failureHandler: sOpts.failureHandler,
		consumeOpts:    sOpts.consumeOpts,
		metrics:        sOpts.metrics,
	}
}

type subscriber struct {
	transport      transport.Transport
	logger         log.Logger
	processor      Processor
	config         Config
	failureHandler FailureHandler
	consumeOpts    []transport.ConsumeOpts
	metrics        *metrics.Metrics

	mu         sync.Mutex
	pool       *workerPool
	stopPool   context.CancelFunc
	stopOnce   sync.Once
	stopResult error
}

func (s *subscriber) Run(ctx context.Context, queues ...transport.Queue) error {
	s.logger.Logf(log.InfoLevel, "started subscriber. Listening to queues: %v", queueNames(queues))

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	consumerCtx, cancelConsumerCtx := context.WithCancel(ctx)
	defer cancelConsumerCtx()

	consumedPkgs, err := s.transport.Consume(consumerCtx, queues, s.consumeOpts...)
	if err != nil {
		return errors.WithStack(err)
	}

	// workers outlive the consumer ctx so that packages in progress are finished on shutdown
	poolCtx, stopPool := context.WithCancel(context.Background())
	pool := newWorkerPool(poolCtx, s.config.WorkersCount)

	s.mu.Lock()
	s.pool = pool
	s.stopPool = stopPool
	s.mu.Unlock()

	stop := func() error {
		cancelConsumerCtx()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.GracefulShutdownTimeout)
		defer cancel()

		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Logf(log.ErrorLevel, "error stopping subscriber gracefully %s", err)
			return errors.Wrapf(err, "stopping subscriber gracefully")
		}
		return nil
	}

	for {
		select {
		case inPkg, open := <-consumedPkgs:
			if !open {
				s.logger.Log(log.InfoLevel, "transport closed consumed packages channel")
				return stop()
			}

			if !pool.submit(consumerCtx, func(workerCtx context.Context) {
				s.processPackage(workerCtx, inPkg)
			}) {
				s.logger.Logf(log.WarnLevel, "package %s was not scheduled, subscriber is stopping", inPkg.UID())
			}
		case <-consumerCtx.Done():
			s.logger.Log(log.InfoLevel, "subscriber's context was canceled")
			return stop()
		case <-signalChan:
			s.logger.Log(log.InfoLevel, "received kill signal")
			return stop()
		}
	}
}

// processPackage runs the processor until it succeeds or the retry budget is spent, then acks the package
func (s *subscriber) processPackage(ctx context.Context, inPkg transport.IncomingPkg) {
	s.logger.Logf(log.DebugLevel, "started processing package id %s", inPkg.UID())

	headers := message.Headers(inPkg.Headers())
	attempts := headers.Attempts()
	backoff := s.config.RetryBackoff

	var processingErr error

	for {
		attempts++
		processingErr = s.processOnce(ctx, inPkg)

		if processingErr == nil {
			break
		}

		s.logger.Logf(log.ErrorLevel, "error happened while processing pkg %s from %s, attempt %d. %s", inPkg.UID(), inPkg.Origin(), attempts, processingErr)

		if puberrors.GetStatus(processingErr) == puberrors.NoRetry || uint(attempts) > s.config.MaxRetries {
			break
		}

		s.metrics.PackageProcessed(inPkg.Origin(), "retried")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			s.logger.Logf(log.WarnLevel, "stopped retrying package %s, worker is stopping", inPkg.UID())
			return
		}
		backoff *= 2
	}

	if headers != nil {
		headers.SetAttempts(attempts)
	}

	if processingErr != nil {
		s.handleFailure(ctx, inPkg, processingErr, attempts)
		return
	}

	s.metrics.PackageProcessed(inPkg.Origin(), "success")

	if err := inPkg.Ack(); err != nil {
		s.logger.Logf(log.ErrorLevel, "error acking package %s. %s", inPkg.UID(), err)
		return
	}

	s.logger.Logf(log.DebugLevel, "acked package id %s", inPkg.UID())
}

func (s *subscriber) processOnce(ctx context.Context, inPkg transport.IncomingPkg) (err error) {
	processorCtx, processorCancel := context.WithTimeout(ctx, s.config.PackageProcessingMaxTime)
	defer processorCancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while processing package %s: %v", inPkg.UID(), r)
		}
	}()

	return s.processor.Process(processorCtx, inPkg)
}

func (s *subscriber) handleFailure(ctx context.Context, inPkg transport.IncomingPkg, cause error, attempts int) {
	s.metrics.PackageProcessed(inPkg.Origin(), "failed")

	if s.failureHandler == nil {
		if err := inPkg.Nack(); err != nil {
			s.logger.Logf(log.ErrorLevel, "error nacking package %s. %s", inPkg.UID(), err)
		}
		return
	}

	if err := s.failureHandler.HandleFailure(ctx, inPkg, cause, attempts); err != nil {
		s.logger.Logf(log.ErrorLevel, "failure handler couldn't handle package %s. %s", inPkg.UID(), err)
		if err := inPkg.Nack(); err != nil {
			s.logger.Logf(log.ErrorLevel, "error nacking package %s. %s", inPkg.UID(), err)
		}
		return
	}

	if err := inPkg.Ack(); err != nil {
		s.logger.Logf(log.ErrorLevel, "error acking failed package %s. %s", inPkg.UID(), err)
	}
}

func (s *subscriber) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopResult = s.stop(ctx)
	})

	return s.stopResult
}

func (s *subscriber) stop(ctx context.Context) error {
	s.mu.Lock()
	pool, stopPool := s.pool, s.stopPool
	s.mu.Unlock()

	if pool != nil {
		if pool.busyWorkers() > 0 {
			s.logger.Logf(log.InfoLevel, "graceful shutdown. Waiting subscriber for finishing %d tasks in progress", pool.busyWorkers())
		}

		waitingTicker := time.NewTicker(time.Millisecond * 100)
		defer waitingTicker.Stop()

	waiting:
		for pool.busyWorkers() > 0 {
			select {
			case <-ctx.Done():
				s.logger.Log(log.WarnLevel, "stopped waiting for tasks in progress because of canceled ctx")
				break waiting
			case <-waitingTicker.C:
			}
		}

		stopPool()
		pool.wait()
	}

	s.logger.Log(log.InfoLevel, "all tasks are finished. Disconnecting from transport.")

	return s.transport.Disconnect(ctx)
}

func queueNames(queues []transport.Queue) []string {
	names := make([]string, len(queues))
	for i, q := range queues {
		names[i] = q.Name()
	}
	return names
}
