package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/config"
	"github.com/bibcovers/cover-indexer/internal/harvest"
	"github.com/bibcovers/cover-indexer/internal/lock"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/providers/jetstream"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors/bogportalen"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors/comicsplus"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors/publizon"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors/saxo"
	"github.com/bibcovers/cover-indexer/internal/reconcile"
	"github.com/bibcovers/cover-indexer/internal/router"
	"github.com/bibcovers/cover-indexer/internal/store"
)

// app builds the harvester dependencies on first use and releases them in close
type app struct {
	cfg     *config.HarvesterConfig
	out     io.Writer
	closers []func()

	pgStore store.Store
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("harvester"),
		kong.Description("Reconcile vendor cover feeds against the cover store."),
		kong.UsageOnError(),
	)

	cfg, err := config.LoadHarvesterConfig(cli.Config, cli.Env)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Service:         "harvester",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{cfg: cfg, out: os.Stdout}
	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(a)

	a.close()
	stop()
	logger.Flush(2 * time.Second)

	if err != nil {
		logger.Error(err, zap.String("command", kctx.Command()))
		os.Exit(1)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) store() (store.Store, error) {
	if a.pgStore != nil {
		return a.pgStore, nil
	}

	db, err := gorm.Open(postgres.Open(a.cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.ConfigureConnectionPool(db, a.cfg.Database.MaxOpenConns, a.cfg.Database.MaxIdleConns, a.cfg.Database.ConnMaxLifetime, a.cfg.Database.ConnMaxIdleTime); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	a.pgStore = store.NewPGStore(db)
	return a.pgStore, nil
}

// adapters returns the enabled vendor adapters
func (a *app) adapters() []vendors.Adapter {
	httpClient := adapter.NewHTTPClient(a.cfg.HTTP.Timeout)
	v := a.cfg.Vendors

	var enabled []vendors.Adapter
	if v.Bogportalen.Enabled {
		enabled = append(enabled, bogportalen.NewAdapter(httpClient, vendorConfig(v.Bogportalen)))
	}
	if v.Saxo.Enabled {
		enabled = append(enabled, saxo.NewAdapter(httpClient, vendorConfig(v.Saxo)))
	}
	if v.Publizon.Enabled {
		enabled = append(enabled, publizon.NewAdapter(httpClient, vendorConfig(v.Publizon)))
	}
	if v.ComicsPlus.Enabled {
		enabled = append(enabled, comicsplus.NewAdapter(httpClient, vendorConfig(v.ComicsPlus)))
	}
	return enabled
}

func vendorConfig(c config.VendorConfig) vendors.Config {
	return vendors.Config{
		DataServerURI:  c.URL,
		ImageServerURI: c.ImageURL,
		User:           c.User,
		Password:       c.Password,
		Rank:           c.Rank,
	}
}

func (a *app) harvester(ctx context.Context) (*harvest.Harvester, error) {
	st, err := a.store()
	if err != nil {
		return nil, err
	}

	redisClient := adapter.NewRedisClient(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	a.closers = append(a.closers, func() { _ = redisClient.Close() })
	if err := redisClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
		URL:             a.cfg.NATS.URL,
		StreamName:      a.cfg.NATS.StreamName,
		MaxReconnects:   a.cfg.NATS.MaxReconnects,
		ReconnectWait:   a.cfg.NATS.ReconnectWait,
		ConnectionName:  a.cfg.NATS.ConnectionName,
		DuplicateWindow: a.cfg.NATS.DuplicateWindow,
	}, adapter.NewNatsJetStream())
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}
	a.closers = append(a.closers, publisher.Close)

	engine := reconcile.NewEngine(st, router.NewRouter(publisher))
	locker := lock.NewRedisLocker(redisClient, a.cfg.Lock.TTL)

	return harvest.NewHarvester(st, locker, engine, adapter.NewClock(), a.adapters()...), nil
}
