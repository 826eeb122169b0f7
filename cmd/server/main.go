package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	apiHandler "github.com/clearfund/backend/api/handler"
	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/internal/config"
	"github.com/clearfund/backend/internal/infrastructure/journal"
	"github.com/clearfund/backend/internal/infrastructure/monitor"
	pgInfra "github.com/clearfund/backend/internal/infrastructure/postgres"
	redisInfra "github.com/clearfund/backend/internal/infrastructure/redis"
	"github.com/clearfund/backend/internal/middleware"
	"github.com/clearfund/backend/internal/router"
	"github.com/clearfund/backend/internal/services"
	"github.com/clearfund/backend/internal/services/lifecycle"
	"github.com/clearfund/backend/internal/transfer"
	"github.com/clearfund/backend/ledger"
	"github.com/clearfund/backend/pkg/httpcontext"
	"github.com/clearfund/backend/pkg/logger"
	"github.com/clearfund/backend/pkg/metrics"
	"github.com/clearfund/backend/repository"
	"github.com/clearfund/backend/repository/postgres"
	redisRepo "github.com/clearfund/backend/repository/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "journal")
	if err != nil {
		zapLogger.Fatal("failed to open event journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	eventRepo := postgres.NewEventRepository(pool)
	campaignRepo := postgres.NewCampaignRepository(pool)
	publisher := redisRepo.NewPublisher(redisClient)

	channel, err := transferChannel(cfg.Transfer, zapLogger)
	if err != nil {
		zapLogger.Fatal("transfer channel setup failed", zap.Error(err))
	}

	engine := ledger.New(ledger.Options{
		Transfer: channel,
		Metrics:  m,
		Logger:   zapLogger.Named("ledger"),
	})

	processor := services.NewJournalProcessor(
		journalStore,
		mon,
		eventRepo,
		engine,
		campaignRepo,
		publisher,
		m,
		zapLogger,
		services.ProcessorConfig{
			Interval:  cfg.Journal.FlushInterval,
			BatchSize: cfg.Journal.BatchSize,
		},
	)

	if err := restoreEngine(appCtx, engine, eventRepo, processor, journalStore, zapLogger); err != nil {
		zapLogger.Fatal("ledger restore failed", zap.Error(err))
	}
	engine.AttachSink(services.NewJournalBridge(processor))

	processor.Start()
	manager.Register("journal_processor", func(ctx context.Context) error {
		processor.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Campaign:   apiHandler.NewCampaignHandler(engine, ctxAdapter, zapLogger),
		Donation:   apiHandler.NewDonationHandler(engine, ctxAdapter, zapLogger),
		Expense:    apiHandler.NewExpenseHandler(engine, ctxAdapter, zapLogger),
		Withdrawal: apiHandler.NewWithdrawalHandler(engine, ctxAdapter, zapLogger),
		Events:     apiHandler.NewEventsHandler(engine, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	identity := middleware.CallerIdentity(cfg.JWT.Secret, zapLogger)

	var metricsHandler fasthttp.RequestHandler
	if cfg.HTTP.EnableMetrics {
		metricsHandler = fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r := router.New(handlers, identity, metricsHandler)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// restoreEngine rebuilds ledger state from the durable event log. Events that
// were journaled but never flushed are drained into postgres first, then any
// events that still could not flush are replayed from the journal itself, so
// the in-memory state always covers the full sequence.
func restoreEngine(ctx context.Context, engine *ledger.Engine, events repository.EventRepository, processor *services.JournalProcessor, jrnl *journal.Store, logger *zap.Logger) error {
	if err := processor.Drain(ctx); err != nil {
		logger.Warn("journal drain before replay incomplete", zap.Error(err))
	}

	var after uint64
	var total int
	for {
		batch, err := events.List(ctx, repository.EventFilter{AfterSeq: after, Limit: 1000})
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		if err := engine.Restore(batch); err != nil {
			return err
		}
		after = batch[len(batch)-1].Sequence
		total += len(batch)
	}

	// Journaled events drain strictly in order, so anything left in the
	// journal follows the last event postgres has.
	pending, err := jrnl.GetBatch(10000)
	if err != nil {
		return fmt.Errorf("read pending journal events: %w", err)
	}
	var tail []domain.Event
	for _, ev := range pending {
		if ev.Sequence > engine.LastSequence() {
			tail = append(tail, ev)
		}
	}
	if len(tail) > 0 {
		if err := engine.Restore(tail); err != nil {
			return err
		}
		total += len(tail)
	}

	logger.Info("ledger state restored",
		zap.Int("events", total),
		zap.Uint64("campaigns", engine.TotalCampaigns()))
	return nil
}

func transferChannel(cfg config.TransferConfig, logger *zap.Logger) (ledger.TransferChannel, error) {
	switch cfg.Mode {
	case "http":
		return transfer.NewHTTP(cfg, logger.Named("transfer")), nil
	case "noop":
		logger.Warn("using noop transfer channel; no value will move")
		return transfer.NewNoop(logger.Named("transfer")), nil
	default:
		return nil, fmt.Errorf("unknown transfer mode %q", cfg.Mode)
	}
}
