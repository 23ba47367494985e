// va-admin is the operational entry point for the record-identity core:
// bulk duplicate marking, hash regeneration, and location-tree loading.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"va-core/internal/config"
	"va-core/internal/database"
	"va-core/internal/dedup"
	"va-core/internal/logger"
	"va-core/internal/repository"
	"va-core/internal/service"
	"va-core/internal/store"
)

// app bundles everything a subcommand needs.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	logger *zap.Logger

	vaRepo    repository.VARepository
	locRepo   repository.LocationsRepository
	usersRepo repository.UsersRepository

	locations *service.LocationService
	records   *service.RecordService
	scopes    *service.ScopeService
	bulk      *dedup.BulkMarker
}

func newApp() (*app, error) {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "va-admin")
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vaRepo := repository.NewPostgresVARepository(db)
	locRepo := repository.NewPostgresLocationsRepository(db)
	usersRepo := repository.NewPostgresUsersRepository(db)

	var kv store.KV = store.NewMemoryKV()
	if cfg.Redis.Enabled {
		kv = store.NewRedisKV(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	}

	reconciler, err := dedup.NewReconciler(cfg.Dedup.Questions, log)
	if err != nil {
		// Degraded to disabled; the operator must know.
		log.Error("duplicate detection disabled", zap.Error(err))
	}

	return &app{
		cfg:       cfg,
		db:        db,
		logger:    log,
		vaRepo:    vaRepo,
		locRepo:   locRepo,
		usersRepo: usersRepo,
		locations: service.NewLocationService(locRepo, kv, cfg.UnknownLocationName, log),
		records:   service.NewRecordService(vaRepo, reconciler, cfg.Dedup.MaxRetries, log),
		scopes:    service.NewScopeService(locRepo, vaRepo, kv, cfg.Scope.CacheTTL, log),
		bulk:      dedup.NewBulkMarker(vaRepo, reconciler.Fields(), log),
	}, nil
}

func (a *app) close() {
	database.Close(a.db)
	_ = a.logger.Sync()
}

func main() {
	root := &cobra.Command{
		Use:           "va-admin",
		Short:         "Operational tooling for the VA record-identity core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMarkDuplicatesCmd(),
		newRegenerateHashesCmd(),
		newLoadLocationsCmd(),
		newExportLocationsCmd(),
		newUserScopeCmd(),
		newMigrateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
