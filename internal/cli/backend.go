package cli

import (
	"context"
	"fmt"
	"log"

	"institute-service/internal/authz"
	"institute-service/internal/config"
	"institute-service/internal/repository/memory"
	"institute-service/internal/repository/postgres"
	"institute-service/pkg/rbac"
	"institute-service/pkg/rbac/presets"

	"github.com/redis/go-redis/v9"
)

// backend bundles the stores and engine a command works against.
type backend struct {
	db     *postgres.DB
	roles  *postgres.RoleRepository
	store  *postgres.PolicyRepository
	engine *authz.Engine
	redis  *redis.Client
}

func openDB() (*postgres.DB, error) {
	cfg := config.LoadDatabase()
	db, err := postgres.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// openBackend connects to Postgres and loads the engine. When REDIS_ADDR is
// set, mutations are published so running servers reload.
func openBackend(ctx context.Context) (*backend, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}

	b := &backend{
		db:    db,
		roles: postgres.NewRoleRepository(db),
		store: postgres.NewPolicyRepository(db),
	}

	opts := authz.Options{}
	if rc := config.LoadRedis(); rc.Enabled() {
		b.redis = redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		watcher, err := authz.NewRedisWatcher(ctx, b.redis, rc.WatchChannel)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("start policy watcher: %w", err)
		}
		opts.Watcher = watcher
	}

	b.engine, err = authz.NewEngine(b.store, opts)
	if err != nil {
		if opts.Watcher != nil {
			opts.Watcher.Close()
		}
		b.Close()
		return nil, err
	}

	return b, nil
}

func (b *backend) Close() {
	if b.engine != nil {
		b.engine.Close()
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Printf("close redis: %v", err)
		}
	}
	b.db.Close()
}

// loadPolicySet resolves a seed file or a named preset. Exactly one of the
// two must be given.
func loadPolicySet(file, preset string) (rbac.Config, error) {
	switch {
	case file != "" && preset != "":
		return rbac.Config{}, fmt.Errorf("--file and --preset are mutually exclusive")
	case file != "":
		return rbac.LoadFile(file)
	case preset != "":
		p, ok := presets.Lookup(preset)
		if !ok {
			return rbac.Config{}, fmt.Errorf("unknown preset %q", preset)
		}
		cfg := p.Config()
		if err := cfg.Validate(); err != nil {
			return rbac.Config{}, err
		}
		return cfg, nil
	default:
		return rbac.Config{}, fmt.Errorf("one of --file or --preset is required")
	}
}

// offlineEngine evaluates a policy set without touching the database.
func offlineEngine(cfg rbac.Config) (*authz.Engine, error) {
	return authz.NewEngine(memory.NewPolicyRepository(cfg.Rules()...), authz.Options{})
}
