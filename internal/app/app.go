package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/brfinance/extrato/internal/async"
	"github.com/brfinance/extrato/internal/config"
	v1 "github.com/brfinance/extrato/internal/controller/http/v1"
	"github.com/brfinance/extrato/internal/extractor"
	"github.com/brfinance/extrato/internal/parser"
	"github.com/brfinance/extrato/internal/repository/postgresql"
	"github.com/brfinance/extrato/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	a.log.InfoContext(ctx, "establishing amqp connection")

	conn, err := amqp.Dial(a.cfg.AMQP.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to amqp broker: %w", err)
	}
	defer conn.Close()

	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open amqp channel: %w", err)
	}
	defer pubCh.Close()

	if err := async.DeclareTopology(pubCh, a.cfg.AMQP.MessageTTL); err != nil {
		return fmt.Errorf("failed to declare amqp topology: %w", err)
	}

	uploadsRepository := postgresql.NewUploadsRepository(pool)
	transactionsRepository := postgresql.NewTransactionsRepository(pool)
	txManager := postgresql.NewTxManager(pool)

	registry, err := parser.NewRegistry(a.log, extractor.NewPDF(), parser.BankConfigs()...)
	if err != nil {
		return fmt.Errorf("failed to build parser registry: %w", err)
	}

	metrics := service.NewMetrics()
	extrato := service.New(a.log, registry, uploadsRepository, transactionsRepository, txManager, metrics)

	statuses := async.NewCacheStatusStore(a.cfg.StatusCache.MaxEntries, a.cfg.StatusCache.TTL)
	publisher := async.NewAMQPPublisher(pubCh)
	notifier := async.NewAMQPNotifier(a.log, publisher)
	producer := async.NewProducer(a.log, publisher, statuses)

	return a.start(ctx, conn, extrato, metrics, producer, statuses, notifier)
}

func (a *App) start(
	ctx context.Context,
	conn *amqp.Connection,
	extrato *service.ExtratoService,
	metrics *service.Metrics,
	producer *async.Producer,
	statuses async.StatusStore,
	notifier async.Notifier,
) error {
	server := v1.NewServer(a.cfg.HTTP, extrato, producer, metrics)

	erg, ctx := errgroup.WithContext(ctx)

	for i := range a.cfg.Worker.Consumers {
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open worker channel: %w", err)
		}

		// one unacked message per worker keeps jobs evenly spread
		if err := ch.Qos(1, 0, false); err != nil {
			return fmt.Errorf("failed to set channel qos: %w", err)
		}

		consumer := fmt.Sprintf("extrato-worker-%d", i+1)

		deliveries, err := ch.Consume(async.QueueProcessing, consumer, false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to start consumer %s: %w", consumer, err)
		}

		worker := async.NewWorker(a.log.With(slog.String("consumer", consumer)), extrato, statuses, notifier)

		erg.Go(func() error {
			return worker.Run(ctx, deliveries)
		})
	}

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	a.log.InfoContext(ctx, "all components started")

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "app stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "app stopped gracefully")

	return nil
}
