package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/auth"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/config"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/database"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/handlers"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/inference"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/logging"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/middleware"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/repositories"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/retry"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return runMigrations(cfg, logger)
	}); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	// Postgres may still be starting when the engine comes up.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.URL(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("failed to create JWKS client", zap.Error(err))
	}
	defer validator.Close()
	authMiddleware := auth.NewMiddleware(validator, logger)

	defaults, err := loadDefaults(cfg)
	if err != nil {
		logger.Fatal("failed to load industry defaults", zap.Error(err))
	}
	logger.Info("industry defaults loaded", zap.String("defaults_version", defaults.Version()))

	tenantRepo := repositories.NewTenantRepository(db)
	productRepo := repositories.NewProductRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	entryRepo := repositories.NewProductionEntryRepository(db, logger)
	downtimeRepo := repositories.NewDowntimeRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)
	qualityRepo := repositories.NewQualityRepository(db)
	orderRepo := repositories.NewWorkOrderRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	resolver := inference.NewResolver(historyRepo, defaults, logger)

	entryService := services.NewEntryService(entryRepo, downtimeRepo, attendanceRepo, qualityRepo, productRepo, shiftRepo, tenantRepo, resolver, logger)
	importService := services.NewImportService(entryService, logger)
	workOrderService := services.NewWorkOrderService(orderRepo, productRepo, shiftRepo, tenantRepo, resolver, logger)
	tenantService := services.NewTenantService(tenantRepo, logger)
	dashboardService := services.NewDashboardService(
		entryRepo, downtimeRepo, attendanceRepo, qualityRepo, orderRepo, productRepo, shiftRepo,
		resolver, decimal.NewFromFloat(cfg.KPI.TrendDeadbandPercent), logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewEntriesHandler(entryService, importService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewWorkOrdersHandler(workOrderService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTenantsHandler(tenantService, logger).RegisterRoutes(mux, authMiddleware)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting kpi-engine", zap.String("addr", server.Addr), zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// runMigrations applies pending migrations over a short-lived database/sql
// connection. The pgx pool is opened afterwards so it never observes a
// half-migrated schema.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}

func loadDefaults(cfg *config.Config) (*inference.IndustryDefaults, error) {
	if cfg.KPI.DefaultsPath == "" {
		return inference.BuiltinDefaults(), nil
	}
	return inference.LoadDefaults(cfg.KPI.DefaultsPath)
}
