package main

import (
	"context"
	"errors"
	"institute-service/internal/audit"
	"institute-service/internal/auth"
	"institute-service/internal/authz"
	"institute-service/internal/config"
	"institute-service/internal/http"
	"institute-service/internal/repository"
	"institute-service/internal/repository/cache"
	"institute-service/internal/repository/postgres"
	"institute-service/pkg/metrics"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	envFilePath      = ".env"
	serverAddrPrefix = ":"
	logOutputFlags   = log.LstdFlags | log.Lshortfile
	rolePurgeEvery   = 5 * time.Minute
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	if err := godotenv.Load(envFilePath); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(logOutputFlags)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("Configuration loaded successfully")

	if err := run(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server exited gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	log.Println("Database connection established")

	opts := authz.Options{StoreTimeout: cfg.Authz.LoadTimeout}
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		watcher, err := authz.NewRedisWatcher(ctx, rdb, cfg.Redis.WatchChannel)
		if err != nil {
			return err
		}
		opts.Watcher = watcher
		log.Printf("Policy sync enabled on channel %q (instance %s)", cfg.Redis.WatchChannel, watcher.InstanceID())
	}

	// Fail fast: never serve with a partially loaded policy set.
	engine, err := authz.NewEngine(postgres.NewPolicyRepository(db), opts)
	if err != nil {
		if opts.Watcher != nil {
			opts.Watcher.Close()
		}
		return err
	}
	defer engine.Close()

	log.Println("Authorization policies loaded")

	var roleRepo repository.RoleRepository = postgres.NewRoleRepository(db)
	var roleCache *cache.RoleCache
	if cfg.Authz.RoleCacheTTL > 0 {
		roleCache = cache.NewRoleCache(roleRepo, cfg.Authz.RoleCacheTTL)
		roleRepo = roleCache
	}
	auditLogger := audit.NewLogger(db.Pool)
	m := metrics.New()

	gate := auth.NewGate(auth.GateConfig{
		Verifier:   auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryDuration),
		Roles:      roleRepo,
		Classifier: authz.NewClassifier(cfg.Authz.APIPrefix),
		Enforcer:   engine,
		DenyStatus: cfg.Authz.DenyStatus,
		Metrics:    m,
		Auditor:    auditLogger,
	})

	server := http.NewServer(&http.ServerDependencies{
		Config:      cfg,
		DB:          db,
		Roles:       roleRepo,
		Policies:    engine,
		Gate:        gate,
		Metrics:     m,
		AuditLogger: auditLogger,
		AuditEvents: auditLogger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.Start(serverAddrPrefix + cfg.Server.Port); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	if roleCache != nil {
		g.Go(func() error {
			ticker := time.NewTicker(rolePurgeEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					roleCache.Purge()
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
