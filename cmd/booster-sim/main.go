// Command booster-sim serves the booster simulator's REST and WebSocket API.
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

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/api"
	"github.com/ramonehamilton/booster-sim/internal/config"
	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/events"
	"github.com/ramonehamilton/booster-sim/internal/facade"
	"github.com/ramonehamilton/booster-sim/internal/metrics"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/refresh"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/setcache"
	"github.com/ramonehamilton/booster-sim/internal/storage"
	"github.com/ramonehamilton/booster-sim/internal/version"
)

var (
	configPath  = flag.String("config", "", "Config file (default: ~/.booster-sim/config.toml)")
	envFile     = flag.String("env-file", ".env", "Dotenv file loaded before the environment")
	addr        = flag.String("addr", "", "Listen address, overrides server.addr")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	if err := run(); err != nil {
		log.WithError(err).Fatal("booster-sim failed")
	}
}

func run() error {
	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.Load(path, *envFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := config.ApplyLogging(cfg.Log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := config.WatchLogging(ctx, path); err != nil {
			log.WithError(err).Warn("Config watcher stopped")
		}
	}()

	var cl closers
	defer cl.run()

	var redisClient *redis.Client
	if needsRedis(cfg) {
		redisClient = newRedis(cfg, &cl)
	}

	provider := setcache.NewProvider(
		newScryfall(cfg.Scryfall),
		newPoolCache(cfg.Cache, redisClient),
		config.Duration(cfg.Cache.SetsTTL, 6*time.Hour),
	)

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(events.NewLoggingObserver(log.IsLevelEnabled(log.TraceLevel)))

	var rng booster.RNG
	if cfg.Economy.Seed != 0 {
		rng = booster.NewSeededRNG(cfg.Economy.Seed)
	}
	ledger := economy.NewLedger(economy.Config{
		StartingBalance: cfg.StartingBalance(),
		PackPrice:       cfg.PackPrice(),
	}, booster.NewGenerator(rng), dispatcher)

	sink, err := openSink(ctx, cfg, redisClient, &cl)
	if err != nil {
		return fmt.Errorf("open %s snapshot store: %w", cfg.Snapshot.Backend, err)
	}
	store := storage.NewSnapshotStore(sink, cfg.Snapshot.Key, cfg.StartingBalance())
	dispatcher.Register(storage.NewSnapshotObserver(store))

	simMetrics := metrics.NewSimMetrics()
	dispatcher.Register(simMetrics)

	services := &facade.Services{
		Ledger:  ledger,
		Cards:   provider,
		Store:   store,
		Events:  dispatcher,
		Metrics: simMetrics,
	}

	if cfg.Jobs.Enabled {
		scheduler, err := refresh.NewScheduler(refresh.SchedulerConfig{
			Catalog:  provider,
			Events:   dispatcher,
			Schedule: cfg.Jobs.RefreshSchedule,
			WarmSets: func() []string {
				var codes []string
				for _, b := range ledger.Boosters() {
					codes = append(codes, b.SetCode)
				}
				return codes
			},
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		cl.add(scheduler.Stop)
		services.Refresh = scheduler
	}

	facades := api.NewFacades(services)
	if _, err := facades.System.Restore(ctx); err != nil {
		// A snapshot that loads but breaks a ledger invariant is ignored.
		log.WithError(err).Warn("Ignoring saved snapshot")
	}

	server := api.NewServer(&api.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout:   config.Duration(cfg.Server.WriteTimeout, 2*time.Minute),
		RequestTimeout: config.Duration(cfg.Server.RequestTimeout, 90*time.Second),
	}, facades)
	dispatcher.Register(server.NewWebSocketObserver())

	if err := server.Start(); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}

	log.WithFields(log.Fields{
		"addr":     cfg.Server.Addr,
		"version":  version.Version,
		"snapshot": cfg.Snapshot.Backend,
		"cache":    cfg.Cache.Backend,
		"balance":  ledger.Balance().StringFixed(2),
	}).Info("Booster simulator running")

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("Error during shutdown")
	}

	log.Info("Stopped")
	return nil
}
