package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/config"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/metrics"
	"github.com/bibcovers/cover-indexer/internal/nohit"
	"github.com/bibcovers/cover-indexer/internal/probe"
	"github.com/bibcovers/cover-indexer/internal/processor"
	"github.com/bibcovers/cover-indexer/internal/providers/cloudflare"
	"github.com/bibcovers/cover-indexer/internal/providers/jetstream"
	"github.com/bibcovers/cover-indexer/internal/providers/openlibrary"
	"github.com/bibcovers/cover-indexer/internal/router"
	"github.com/bibcovers/cover-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	stageName  = flag.String("stage", "", "Stage to consume: validate, publish, enrich, delete or search-miss")
)

// deps holds the connections a stage may need; nil fields are not used by the selected stage
type deps struct {
	cfg        *config.WorkerConfig
	store      store.Store
	publisher  messaging.Publisher
	router     router.Router
	httpClient adapter.HTTPClient
	redis      adapter.RedisClient
}

func main() {
	flag.Parse()

	cfg, err := config.LoadWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Service:         "worker-" + *stageName,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting worker", zap.String("stage", *stageName))

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	natsJS := adapter.NewNatsJetStream()
	jsConfig := jetstream.Config{
		URL:             cfg.NATS.URL,
		StreamName:      cfg.NATS.StreamName,
		MaxReconnects:   cfg.NATS.MaxReconnects,
		ReconnectWait:   cfg.NATS.ReconnectWait,
		ConnectionName:  cfg.NATS.ConnectionName,
		DuplicateWindow: cfg.NATS.DuplicateWindow,
	}

	publisher, err := jetstream.NewPublisher(ctx, jsConfig, natsJS)
	if err != nil {
		logger.Fatal("Failed to create publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer publisher.Close()

	d := &deps{
		cfg:        cfg,
		store:      store.NewPGStore(db),
		publisher:  publisher,
		router:     router.NewRouter(publisher),
		httpClient: adapter.NewHTTPClient(cfg.HTTP.Timeout),
	}

	stage, err := d.buildStage(ctx, *stageName)
	if err != nil {
		logger.Fatal("Failed to build stage", zap.Error(err), zap.String("stage", *stageName))
	}
	if d.redis != nil {
		defer func() { _ = d.redis.Close() }()
	}

	consumerName := cfg.NATS.ConsumerName
	if consumerName == "" {
		consumerName = "covers-" + stage.Name()
	}
	consumer, err := jetstream.NewConsumer(ctx, jetstream.ConsumerConfig{
		Config:       jsConfig,
		ConsumerName: consumerName,
		AckWait:      cfg.NATS.AckWait,
		MaxDeliver:   cfg.NATS.MaxDeliver,
	}, natsJS, metrics.ObserveOutcome)
	if err != nil {
		logger.Fatal("Failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.ErrorCtx(ctx, fmt.Errorf("metrics server failed: %w", err))
			}
		}()
	}

	logger.InfoCtx(ctx, "Worker started",
		zap.String("stage", stage.Name()),
		zap.String("topic", stage.Topic().String()),
		zap.String("consumer", consumerName))

	if err := consumer.Run(ctx, stage.Topic(), stage); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorCtx(ctx, fmt.Errorf("consumer stopped: %w", err))
	}

	logger.InfoCtx(ctx, "Worker stopped", zap.String("stage", stage.Name()))
}

func (d *deps) buildStage(ctx context.Context, name string) (processor.Stage, error) {
	switch name {
	case domain.StageValidate:
		return processor.NewValidator(d.store, probe.NewProber(d.httpClient), d.router), nil

	case domain.StagePublish:
		cfClient, err := adapter.NewCloudflareClient(d.cfg.Cloudflare.APIToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
		}
		covers := cloudflare.NewCoverStore(cfClient, d.httpClient, cloudflare.Config{
			AccountID:    d.cfg.Cloudflare.AccountID,
			Variant:      d.cfg.Cloudflare.Variant,
			MaxImageSize: d.cfg.Cloudflare.MaxImageSize,
		})
		return processor.NewPublisher(d.store, covers, d.router), nil

	case domain.StageEnrich:
		noHits, err := d.noHits(ctx)
		if err != nil {
			return nil, err
		}
		searchClient := openlibrary.NewClient(adapter.NewHTTPClient(d.cfg.Search.Timeout), openlibrary.Config{
			BaseURL:           d.cfg.Search.URL,
			RequestsPerSecond: d.cfg.Search.RequestsPerSecond,
		})
		return processor.NewEnricher(d.store, searchClient, noHits, d.publisher), nil

	case domain.StageDelete:
		cfClient, err := adapter.NewCloudflareClient(d.cfg.Cloudflare.APIToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
		}
		covers := cloudflare.NewCoverStore(cfClient, d.httpClient, cloudflare.Config{AccountID: d.cfg.Cloudflare.AccountID})
		return processor.NewDeleter(d.store, covers), nil

	case domain.StageSearchMiss:
		noHits, err := d.noHits(ctx)
		if err != nil {
			return nil, err
		}
		return processor.NewSearchMiss(noHits), nil

	default:
		return nil, fmt.Errorf("unknown stage %q", name)
	}
}

// noHits builds the no-hit reporter; Redis is only connected when the feature is enabled
func (d *deps) noHits(ctx context.Context) (nohit.Reporter, error) {
	if !d.cfg.NoHit.Enabled {
		logger.InfoCtx(ctx, "No-hit reporting disabled")
		return nohit.NewService(false, nil), nil
	}

	d.redis = adapter.NewRedisClient(d.cfg.Redis.Addr, d.cfg.Redis.Password, d.cfg.Redis.DB)
	if err := d.redis.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nohit.NewService(true, nohit.NewCache(d.redis, d.publisher, d.cfg.NoHit.TTL)), nil
}
