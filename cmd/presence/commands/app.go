package commands

import (
	"context"
	"fmt"

	"github.com/wonny/presence/backend/internal/api/handlers"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/dashboard"
	"github.com/wonny/presence/backend/internal/loader"
	"github.com/wonny/presence/backend/internal/settings"
	"github.com/wonny/presence/backend/pkg/config"
	"github.com/wonny/presence/backend/pkg/database"
	"github.com/wonny/presence/backend/pkg/logger"
)

// app holds what every command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	settings *settings.Settings
	loader   *loader.Loader
	health   handlers.HealthFunc
	close    func()
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if settingsFile != "" {
		cfg.SettingsFile = settingsFile
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// bootstrap wires config, logger, settings and the table source
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	s, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	source, health, closeFn, err := openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"driver":       cfg.Database.Driver,
		"observations": s.Tables.Observations,
		"products":     s.Tables.Products,
		"points":       s.Tables.PointsOfSale,
	}).Info("Data source ready")

	return &app{
		cfg:      cfg,
		log:      log,
		settings: s,
		loader:   loader.New(source, s.Tables, log).WithTimeout(cfg.Database.QueryTimeout),
		health:   health,
		close:    closeFn,
	}, nil
}

// openSource connects to the configured driver
func openSource(ctx context.Context, cfg *config.Config) (contracts.TableSource, handlers.HealthFunc, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to sqlite: %w", err)
		}
		health := func(ctx context.Context) (*database.HealthStatus, error) {
			return database.SQLiteHealth(ctx, db)
		}
		return loader.NewSQLiteSource(db), health, func() { db.Close() }, nil
	default:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		return loader.NewPostgresSource(db.Pool), db.HealthCheck, db.Close, nil
	}
}

// newService builds the dashboard service over the app's loader
func (a *app) newService() *dashboard.Service {
	return dashboard.NewService(a.loader, dashboard.NewSnapshotCache(a.cfg.CacheTTL), a.settings, a.log)
}
