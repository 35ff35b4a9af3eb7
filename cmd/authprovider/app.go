package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	provider "github.com/goliatone/go-auth-provider"
	"github.com/goliatone/go-auth-provider/config"
	"github.com/goliatone/go-auth-provider/postgres"
)

// app holds the process wiring. Stores are opened on first use.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	hasher provider.PasswordHasher

	registry *provider.Registry
	provider provider.UserProviderContract
	guard    *provider.Guard

	mu    sync.Mutex
	bunDB *bun.DB
	repo  provider.RepositoryManager
	pool  *pgxpool.Pool
	pg    *postgres.UserStore
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}

	hasher, err := provider.NewHasher(cfg.Hash.Algorithm, cfg.Hash.Cost)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: setupLogger(cfg.Log.Format, level, cmd.ErrOrStderr()),
		hasher: hasher,
	}

	logger := provider.NewSlogLogger(a.logger)

	a.registry = provider.NewRegistry()
	if err := a.registry.Register(config.DriverBun, provider.NewProviderFactory(hasher, a.bunModel, logger)); err != nil {
		return nil, err
	}
	if err := a.registry.Register(config.DriverPostgres, provider.NewProviderFactory(hasher, a.postgresModel, logger)); err != nil {
		return nil, err
	}

	a.provider, err = a.registry.Provider(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}

	a.guard = provider.NewGuard(a.provider).WithLogger(logger)

	return a, nil
}

func (a *app) repositories() (provider.RepositoryManager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.repo != nil {
		return a.repo, nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, a.cfg.DSN)
	if err != nil {
		return nil, oops.Code("USER_STORE_CONNECT_FAILED").With("driver", a.cfg.Driver).Wrap(err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	repo := provider.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	a.bunDB = db
	a.repo = repo

	a.logger.Debug("opened sqlite user store")
	return a.repo, nil
}

func (a *app) postgresStore(ctx context.Context) (*postgres.UserStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pg != nil {
		return a.pg, nil
	}

	pool, err := postgres.Connect(ctx, a.cfg.DSN)
	if err != nil {
		return nil, err
	}

	a.pool = pool
	a.pg = postgres.NewUserStore(pool)

	a.logger.Debug("opened postgres user store")
	return a.pg, nil
}

func (a *app) bunModel(ctx context.Context) (provider.UserStore, error) {
	repo, err := a.repositories()
	if err != nil {
		return nil, err
	}
	return provider.UsersModel(repo)(ctx)
}

func (a *app) postgresModel(ctx context.Context) (provider.UserStore, error) {
	return a.postgresStore(ctx)
}

func (a *app) migrate(ctx context.Context) error {
	switch a.cfg.Driver {
	case config.DriverPostgres:
		store, err := a.postgresStore(ctx)
		if err != nil {
			return err
		}
		return store.EnsureSchema(ctx)
	default:
		if _, err := a.repositories(); err != nil {
			return err
		}
		group, err := provider.Migrate(ctx, a.bunDB)
		if err != nil {
			return err
		}
		if group.IsZero() {
			a.logger.Info("no new migrations")
			return nil
		}
		a.logger.Info("migrated", "group", group.String())
		return nil
	}
}

func (a *app) register(ctx context.Context, msg provider.RegisterUserMessage) (*provider.User, error) {
	switch a.cfg.Driver {
	case config.DriverPostgres:
		record, err := provider.PrepareUser(msg, a.hasher)
		if err != nil {
			return nil, err
		}
		store, err := a.postgresStore(ctx)
		if err != nil {
			return nil, err
		}
		return store.Create(ctx, record)
	default:
		repo, err := a.repositories()
		if err != nil {
			return nil, err
		}
		return provider.NewRegisterUserHandler(repo, a.hasher).Register(ctx, msg)
	}
}

func (a *app) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.bunDB != nil {
		errs = append(errs, a.bunDB.Close())
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
