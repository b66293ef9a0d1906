package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/go-foreman/enrollsaga"
	"github.com/go-foreman/enrollsaga/config"
	"github.com/go-foreman/enrollsaga/contracts"
	"github.com/go-foreman/enrollsaga/course"
	"github.com/go-foreman/enrollsaga/enrollment"
	"github.com/go-foreman/enrollsaga/idempotency"
	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	"github.com/go-foreman/enrollsaga/payment"
	"github.com/go-foreman/enrollsaga/pubsub/deadletter"
	"github.com/go-foreman/enrollsaga/pubsub/subscriber"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/go-foreman/enrollsaga/pubsub/transport/amqp"
	"github.com/go-foreman/enrollsaga/pubsub/transport/kafka"
	"github.com/go-foreman/enrollsaga/pubsub/transport/memory"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/go-foreman/enrollsaga/saga/api"
	"github.com/go-foreman/enrollsaga/saga/component"
	"github.com/go-foreman/enrollsaga/saga/coordinator"
	"github.com/go-foreman/enrollsaga/saga/mutex"
	"github.com/go-foreman/enrollsaga/saga/steps"
	"github.com/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("loading config. %s", err)
	}

	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Logf(log.FatalLevel, "enrollment saga stopped. %s", err)
	}
}

func newLogger(cfg *config.Config) log.Logger {
	l := logrus.New()
	if cfg.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := log.NewLogrusLogger(l)
	logger.SetLevel(cfg.LogLevel())

	return logger
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	stores, err := openStorage(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer stores.close()

	t, err := newTransport(cfg.Transport, logger)
	if err != nil {
		return err
	}

	consumed := append([]string{saga.EventsTopic}, contracts.Topics...)
	dlTopics := make([]string, len(consumed))
	for i, topic := range consumed {
		dlTopics[i] = deadletter.DeadLetterTopic(topic)
	}

	deadLetters := deadletter.NewPublisher(t, deadletter.DefaultTopics(consumed...), logger, deadletter.WithMetrics(m))
	defer deadLetters.Wait()

	subscriberOpts := []subscriber.Opt{
		subscriber.WithConfig(&subscriber.Config{
			WorkersCount:             cfg.Subscriber.WorkersCount,
			MaxRetries:               cfg.Subscriber.MaxRetries,
			RetryBackoff:             cfg.Subscriber.RetryBackoff,
			PackageProcessingMaxTime: cfg.Subscriber.PackageProcessingMaxTime,
			GracefulShutdownTimeout:  cfg.Subscriber.GracefulShutdownTimeout,
		}),
		subscriber.WithFailureHandler(deadLetters),
		subscriber.WithMetrics(m),
	}

	if cfg.Transport.Kind == config.TransportAmqp {
		subscriberOpts = append(subscriberOpts, subscriber.WithConsumeOpts(amqp.WithQosPrefetchCount(uint(cfg.Subscriber.WorkersCount))))
	}

	bus, err := enrollsaga.NewMessageBus(logger, t, enrollsaga.WithSubscriberOpts(subscriberOpts...))
	if err != nil {
		return errors.Wrap(err, "creating message bus")
	}

	catalog := course.NewCatalog(demoCourses()...)
	payments := payment.NewService(bus, logger, payment.WithIdempotencyStore(stores.processed), payment.WithMutex(stores.mutex), payment.WithMetrics(m))
	enrollments := enrollment.NewService(catalog, bus, logger, enrollment.WithIdempotencyStore(stores.processed), enrollment.WithMutex(stores.mutex), enrollment.WithMetrics(m))

	coord := coordinator.NewCoordinator(stores.sagas, logger,
		coordinator.WithConfig(coordinator.Config{
			MaxBuffered:  cfg.Saga.MaxBufferedEvents,
			Retention:    cfg.Saga.Retention,
			ConsumerName: coordinator.DefaultConfig.ConsumerName,
		}),
		coordinator.WithMutex(stores.mutex),
		coordinator.WithIdempotencyStore(stores.processed),
		coordinator.WithMetrics(m),
	)

	if err := bus.Use(
		component.SagaEvents(),
		component.Coordinator(coord),
		component.Payment(payments),
		component.Enrollment(enrollments),
	); err != nil {
		return err
	}
	bus.DeclareTopics(dlTopics...)

	if err := bus.Connect(ctx); err != nil {
		return err
	}

	publisher := saga.NewAsyncPublisher(bus, logger,
		saga.WithPublisherConfig(saga.AsyncPublisherConfig{BufferSize: cfg.Saga.PublishBuffer, SendTimeout: saga.DefaultAsyncPublisherConfig.SendTimeout}),
		saga.WithPublisherMetrics(m),
	)

	orchestrator := saga.NewOrchestrator(publisher, logger,
		steps.Pipeline(catalog, payments, enrollments, catalog),
		saga.WithStepTimeout(cfg.Saga.StepTimeout),
		saga.WithOrchestratorMetrics(m),
	)

	handler := api.NewHandler(orchestrator, coord, stores.sagas, payments, logger)
	server := api.NewServer(cfg.HTTP.Address, api.NewRouter(handler, registry), logger)

	go coord.RunRetention(ctx, cfg.Saga.RetentionInterval)

	errCh := make(chan error, 2)
	go func() {
		if err := bus.Run(ctx); err != nil {
			errCh <- errors.Wrap(err, "running subscriber")
			return
		}
		errCh <- nil
	}()
	go func() {
		errCh <- server.Start(ctx, cfg.Subscriber.GracefulShutdownTimeout)
	}()

	var runErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && runErr == nil {
			runErr = err
			cancel()
		}
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Subscriber.GracefulShutdownTimeout)
	defer closeCancel()

	if err := publisher.Close(closeCtx); err != nil {
		logger.Logf(log.ErrorLevel, "closing saga event publisher. %s", err)
	}

	return runErr
}

func newTransport(cfg config.Transport, logger log.Logger) (transport.Transport, error) {
	switch cfg.Kind {
	case config.TransportAmqp:
		return amqp.NewTransport(cfg.AmqpURL, logger), nil
	case config.TransportKafka:
		kafkaConfig := kafka.DefaultConfig
		kafkaConfig.Brokers = cfg.KafkaBrokers
		kafkaConfig.GroupID = cfg.KafkaGroupID
		return kafka.NewTransport(kafkaConfig, logger), nil
	case config.TransportMemory:
		return memory.NewTransport(), nil
	}

	return nil, errors.Errorf("unknown transport kind '%s'", cfg.Kind)
}

type storage struct {
	sagas     saga.Store
	processed idempotency.Store
	mutex     mutex.Mutex
	db        *sql.DB
}

func (s storage) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func openStorage(ctx context.Context, cfg config.Store, logger log.Logger) (*storage, error) {
	if cfg.Driver == config.StoreMemory {
		return &storage{
			sagas:     saga.NewMemoryStore(),
			processed: idempotency.NewMemoryStore(),
			mutex:     mutex.NewMemoryMutex(),
		}, nil
	}

	driverName, sagaDriver := "mysql", saga.MYSQLDriver
	if cfg.Driver == config.StorePostgres {
		driverName, sagaDriver = "pgx", saga.PGDriver
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", driverName)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "connecting to %s database", driverName)
	}

	sagas, err := saga.NewSQLStore(db, sagaDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	processed, err := idempotency.NewSQLStore(db, sagaDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &storage{
		sagas:     sagas,
		processed: processed,
		mutex:     mutex.NewSqlMutex(db, sagaDriver, logger),
		db:        db,
	}, nil
}

func demoCourses() []course.Course {
	return []course.Course{
		{ID: 100, Title: "Distributed transactions", Price: 49.9, Capacity: 30, Active: true},
		{ID: 200, Title: "Event driven systems", Price: 79, Capacity: 2, Active: true},
		{ID: 300, Title: "Archived course", Price: 10, Active: false},
	}
}
