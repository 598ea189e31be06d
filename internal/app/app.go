// internal/app/app.go
//
// Process bootstrap shared by cmd/web and cmd/labelctl.
//
// Workflow
// --------
//  1. Console logger so config errors are visible.
//  2. Vault client when VAULT_ADDR is set.
//  3. Layered config (`vault:` references resolved).
//  4. File logger at the configured level and directory.
//  5. Record store: MySQL pool (optionally migrated) or in-memory.
//  6. Labeling service.
//
// Notes
// -----
//   - Close releases the pool and stops vault token renewal.
//   - Oxford commas, two spaces after periods.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/jye-barcode/internal/config"
	"github.com/yanizio/jye-barcode/internal/database"
	"github.com/yanizio/jye-barcode/internal/label"
	"github.com/yanizio/jye-barcode/internal/labeling"
	"github.com/yanizio/jye-barcode/internal/logger"
	"github.com/yanizio/jye-barcode/internal/store"
	"github.com/yanizio/jye-barcode/internal/vault"
)

// App bundles everything a binary needs after boot.
type App struct {
	Config  *config.Config
	Log     *zap.SugaredLogger
	DB      *sqlx.DB // nil for the memory driver
	Store   store.Gateway
	Service *labeling.Service

	cancel context.CancelFunc
}

// Options tweak boot for a particular binary.
type Options struct {
	TeeLog  bool // mirror the log to stdout
	Migrate bool // force schema bootstrap regardless of config
}

// Bootstrap runs the boot sequence.  On error every acquired resource is
// released.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	logger.Bootstrap()

	bgCtx, cancel := context.WithCancel(context.Background())
	a := &App{cancel: cancel}

	var src config.SecretSource
	if vault.Configured() {
		cli, err := vault.New(bgCtx)
		if err != nil {
			a.Close()
			return nil, err
		}
		src = cli
	}

	cfg, err := config.Load(ctx, src)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.Config = cfg

	a.Log, err = logger.New(logger.Options{
		Dir:   cfg.Abs(cfg.Log.Dir),
		Level: cfg.Log.Level,
		Tee:   opts.TeeLog,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("start logger: %w", err)
	}

	if err := a.openStore(ctx, opts.Migrate); err != nil {
		a.Close()
		return nil, err
	}

	a.Service, err = labeling.New(a.Store, labeling.Config{
		Dialect:     label.Dialect(cfg.Label.Dialect),
		MaxQuantity: cfg.Label.MaxQuantity,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, forceMigrate bool) error {
	dbc := a.Config.Database

	if dbc.Driver == "memory" {
		a.Log.Warnw("using in-memory store; records are lost on exit")
		a.Store = store.NewMemory()
		return nil
	}

	a.Log.Infow("connecting to database")
	db, err := database.OpenWithOptions(ctx, dbc.DSN, database.Options{
		MaxOpenConns:    dbc.MaxOpen,
		MaxIdleConns:    dbc.MaxIdle,
		ConnMaxLifetime: dbc.ConnMaxLifetime,
		Password:        dbc.Password,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.DB = db
	a.Log.Infow("database online")

	if dbc.AutoMigrate || forceMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	a.Store = store.NewMySQL(db)
	return nil
}

// Ping checks store reachability for /healthz.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

// Close releases resources.  Safe to call more than once.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
		a.DB = nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
}
