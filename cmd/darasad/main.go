package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/darasahq/darasa/internal/catalog"
	"github.com/darasahq/darasa/internal/config"
	"github.com/darasahq/darasa/internal/daemon"
	"github.com/darasahq/darasa/internal/domain"
	"github.com/darasahq/darasa/internal/points"
	"github.com/darasahq/darasa/internal/progress"
	"github.com/darasahq/darasa/internal/queue"
	"github.com/darasahq/darasa/internal/recommend"
	"github.com/darasahq/darasa/internal/repository"
	"github.com/darasahq/darasa/internal/storage/sqlite"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	local := flag.Bool("local", false, "run in local mode with SQLite under ~/.darasa")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("darasad %s\n", Version)
		return
	}

	if err := run(*local); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run(local bool) error {
	cfg, err := loadConfig(local)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx := context.Background()

	// Storage backend
	var (
		learners   domain.LearnerStore
		ledger     domain.LedgerStore
		classrooms domain.ClassroomStore
	)
	switch cfg.StorageBackend {
	case "postgres":
		db, err := repository.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := repository.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		stores := repository.NewStores(db)
		learners = stores.Learners()
		ledger = stores.Ledger()
		classrooms = stores.Classrooms()
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		learners = sqlite.NewLearnerStore(db)
		ledger = sqlite.NewLedgerStore(db)
		classrooms = sqlite.NewClassroomStore(db)
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	// Catalog: YAML units, optionally cached in Redis, always wrapped
	// with retry and a circuit breaker.
	registry, err := loadCatalog(cfg.UnitsPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var cat domain.Catalog = registry
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := goredis.NewClient(opts)
		defer rdb.Close()
		cat = catalog.NewCache(cat, rdb, cfg.CatalogCacheTTL)
		slog.Info("catalog cache enabled", "ttl", cfg.CatalogCacheTTL)
	}
	cat = catalog.NewResilient(cat)

	// Services
	pointsService := points.NewService(learners, ledger)
	engine := recommend.NewEngine(cat)
	progressService := progress.NewService(learners, classrooms, cat, pointsService, engine)

	// Event publishing is optional; without a broker the daemon runs
	// standalone.
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()

		producer := queue.NewProducer(conn)
		progressService.SetNotifier(producer)
		pointsService.SetPublisher(producer)
		slog.Info("event publishing enabled")
	}

	server := daemon.NewServer(daemon.ServerConfig{
		Addr:     fmt.Sprintf(":%d", cfg.Port),
		Progress: progressService,
		Points:   pointsService,
		Learners: learners,
		Ledger:   ledger,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// loadConfig resolves the effective configuration. Local mode reads
// ~/.darasa/config.yaml and forces SQLite storage.
func loadConfig(local bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !local {
		return cfg, nil
	}

	if _, err := config.EnsureDarasaDir(); err != nil {
		return nil, err
	}
	localCfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, err
	}

	cfg.Port = localCfg.Daemon.Port
	cfg.StorageBackend = "sqlite"
	cfg.SQLitePath = localCfg.Storage.Path
	cfg.UnitsPath = localCfg.Catalog.UnitsPath
	cfg.Debug = localCfg.Daemon.LogLevel == "debug"
	return cfg, nil
}

// loadCatalog reads all unit files from the configured directory. A
// missing directory yields an empty catalog rather than a startup error.
func loadCatalog(path string) (*catalog.Registry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("units directory missing, starting with empty catalog", "path", path)
		return catalog.NewRegistry(), nil
	}

	loader := catalog.NewLoader(path)
	registry, err := loader.LoadAll()
	if err != nil {
		return nil, err
	}
	units, _ := registry.ListUnits(context.Background())
	slog.Info("catalog loaded", "units", len(units))
	return registry, nil
}
