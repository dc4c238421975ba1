package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/config"
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/queue"
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi"
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/worker/reconcile"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	infrakafka "github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/processor"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/secret"
	"github.com/andreyxaxa/Frame-Ingest/internal/repo/persistent"
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase/frame"
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase/parking"
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase/passthrough"
	reconcileuc "github.com/andreyxaxa/Frame-Ingest/internal/usecase/reconcile"
	"github.com/andreyxaxa/Frame-Ingest/pkg/framekey"
	"github.com/andreyxaxa/Frame-Ingest/pkg/httpserver"
	"github.com/andreyxaxa/Frame-Ingest/pkg/kafka/consumer"
	"github.com/andreyxaxa/Frame-Ingest/pkg/kafka/producer"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/andreyxaxa/Frame-Ingest/pkg/postgres"
	"github.com/andreyxaxa/Frame-Ingest/pkg/s3client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - metrics.New: %w", err))
	}

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
		s3client.Bucket(cfg.S3.Bucket),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
		s3client.RetryAttempts(cfg.S3.RetryAttempts),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// Key scheme
	loc, err := time.LoadLocation(cfg.Frames.Timezone)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - time.LoadLocation: %w", err))
	}
	keys, err := framekey.New(framekey.Prefix(cfg.Frames.Prefix), framekey.Location(loc))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - framekey.New: %w", err))
	}

	// Kafka Producer (ingest and reconcile)
	jobProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}
	publisher := infrakafka.NewJobProducer(jobProducer.Writer, cfg.Kafka.Topic)

	// Use-Case

	// reconcile use-case
	reconcileUseCase := reconcileuc.New(
		persistent.NewReconcileRepo(pg),
		pg,
		publisher,
		l,
	)

	// frame use-case
	frameUseCase := frame.New(
		persistent.NewFrameRepo(s3c.Client, cfg.S3.Bucket),
		publisher,
		reconcileUseCase,
		keys,
		m,
		l,
	)

	// parking use-case
	parkingUseCase := parking.New(persistent.NewLotRepo(pg), persistent.NewSpaceRepo(pg))

	// passthrough use-case
	passthroughUseCase := passthrough.New(persistent.NewPassthroughRepo(pg))

	// Reconcile Relay Worker
	var relay *reconcile.Relay
	if cfg.Reconcile.Enabled {
		relay = reconcile.New(
			reconcileUseCase,
			l,
			cfg.Reconcile.PollInterval,
			cfg.Reconcile.MarkFailedInterval,
			cfg.Reconcile.CleanupInterval,
			cfg.Reconcile.ProcessBatchTimeout,
			cfg.Reconcile.BatchSize,
			cfg.Reconcile.MaxRetries,
			cfg.Reconcile.Retention,
			cfg.Reconcile.StaleAfter,
		)
	}

	// Queue Dispatcher
	var dispatcher *queue.Dispatcher
	if cfg.Dispatcher.Enabled {
		dispatcher, err = newDispatcher(ctx, cfg, m, l)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - newDispatcher: %w", err))
		}
	}

	// Auth secret
	var secrets infrastructure.SecretProvider = secret.NewEnv(cfg.Auth.SecretEnv)
	if cfg.Auth.SecretFile != "" {
		secrets = secret.NewFile(cfg.Auth.SecretFile)
	}

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(cfg.HTTP.BodyLimit),
	)
	restapi.NewRouter(httpServer.App, cfg, frameUseCase, parkingUseCase, passthroughUseCase, secrets, registry, l)

	// Start Components
	if relay != nil {
		err = relay.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - relay.Start: %w", err))
		}
	}
	if dispatcher != nil {
		err = dispatcher.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - dispatcher.Start: %w", err))
		}
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	if relay != nil {
		relayShutdownCtx, relayShutdownCancel := context.WithTimeout(ctx, cfg.Reconcile.ShutdownTimeout)
		defer relayShutdownCancel()
		err = relay.Shutdown(relayShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - relay.Shutdown: %w", err))
		}
	}

	if dispatcher != nil {
		dShutdownCtx, dShutdownCancel := context.WithTimeout(ctx, cfg.Dispatcher.ShutdownTimeout)
		defer dShutdownCancel()
		err = dispatcher.Shutdown(dShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - dispatcher.Shutdown: %w", err))
		}
	}

	err = publisher.Close()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - publisher.Close: %w", err))
	}
}

// newDispatcher builds the consuming side. Retried jobs are written through a
// producer of their own, which the consumer closes on shutdown.
func newDispatcher(ctx context.Context, cfg *config.Config, m infrastructure.Metrics, l logger.Interface) (*queue.Dispatcher, error) {
	retryProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		return nil, fmt.Errorf("producer.New: %w", err)
	}

	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		_ = retryProducer.Close()

		return nil, fmt.Errorf("consumer.New: %w", err)
	}

	receiver := infrakafka.NewJobConsumer(kafkaConsumer.Reader, retryProducer.Writer, cfg.Kafka.Topic,
		infrakafka.DeadLetterTopic(cfg.Kafka.DeadLetterTopic),
		infrakafka.BatchSize(cfg.Dispatcher.BatchSize),
		infrakafka.BatchLinger(cfg.Dispatcher.BatchLinger),
		infrakafka.MaxAttempts(cfg.Dispatcher.MaxAttempts),
		infrakafka.RetryInterval(cfg.Dispatcher.RetryInitialInterval, cfg.Dispatcher.RetryMaxInterval),
	)

	proc := processor.New(cfg.Processor.Endpoint,
		processor.Timeout(cfg.Processor.Timeout),
		processor.RateLimit(cfg.Processor.RateLimit, cfg.Processor.Burst),
	)

	return queue.New(
		receiver,
		proc,
		m,
		l,
		cfg.Dispatcher.ProcessTimeout,
		cfg.Dispatcher.CommitTimeout,
	), nil
}
