package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/access"
	"github.com/masterdash/masterdash/internal/api"
	"github.com/masterdash/masterdash/internal/app"
	iauth "github.com/masterdash/masterdash/internal/auth"
	"github.com/masterdash/masterdash/internal/dashboards"
	"github.com/masterdash/masterdash/internal/database"
	"github.com/masterdash/masterdash/internal/maintenance"
	"github.com/masterdash/masterdash/internal/services"
	"github.com/masterdash/masterdash/internal/warehouse"
	"github.com/masterdash/masterdash/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("masterdash-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	wh, err := warehouse.Open(convertWarehouseConfig(cfg))
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer func() {
		if err := wh.Close(); err != nil {
			log.Warn("warehouse close failed", zap.Error(err))
		}
	}()
	log.Info("warehouse connected", zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Warehouse.Driver))))

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	registry, err := dashboards.NewRegistry()
	if err != nil {
		// An unsafe builtin query definition must fail the process.
		return fmt.Errorf("build dashboard registry: %w", err)
	}

	resolver, err := access.NewResolver(db)
	if err != nil {
		return fmt.Errorf("initialise access resolver: %w", err)
	}
	gateway, err := access.NewGateway(resolver, wh)
	if err != nil {
		return fmt.Errorf("initialise access gateway: %w", err)
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return fmt.Errorf("initialise audit service: %w", err)
	}

	cleaner := maintenance.NewCleaner(auditSvc,
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithAuditSchedule(cfg.Maintenance.CleanupSchedule),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(api.Options{
		DB:                db,
		Warehouse:         wh,
		Gateway:           gateway,
		Registry:          registry,
		JWT:               jwtService,
		EnableDiagnostics: cfg.Server.Diagnostics,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql", "mariadb":
		dbCfg.Driver = "mysql"
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}

func convertWarehouseConfig(cfg *app.Config) warehouse.Config {
	return warehouse.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Warehouse.Driver)),
		Path:            strings.TrimSpace(cfg.Warehouse.Path),
		DSN:             strings.TrimSpace(cfg.Warehouse.DSN),
		Host:            strings.TrimSpace(cfg.Warehouse.Host),
		Port:            cfg.Warehouse.Port,
		Name:            strings.TrimSpace(cfg.Warehouse.Database),
		User:            strings.TrimSpace(cfg.Warehouse.Username),
		Password:        cfg.Warehouse.Password,
		MaxOpenConns:    cfg.Warehouse.MaxOpenConns,
		MaxIdleConns:    cfg.Warehouse.MaxIdleConns,
		ConnMaxLifetime: cfg.Warehouse.ConnMaxLifetime,
		QueryTimeout:    cfg.Warehouse.QueryTimeout,
	}
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("obtain database pool for close", zap.Error(err))
		return
	}

	if err := multierr.Combine(sqlDB.Close()); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}
}
