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

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/audit"
	"github.com/datalinkhq/connector-engine/pkg/config"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
	"github.com/datalinkhq/connector-engine/pkg/connectors/mongodb"
	"github.com/datalinkhq/connector-engine/pkg/connectors/mysql"
	"github.com/datalinkhq/connector-engine/pkg/connectors/postgres"
	"github.com/datalinkhq/connector-engine/pkg/connectors/redis"
	"github.com/datalinkhq/connector-engine/pkg/connectors/sheets"
	"github.com/datalinkhq/connector-engine/pkg/connectors/sqlserver"
	"github.com/datalinkhq/connector-engine/pkg/crypto"
	"github.com/datalinkhq/connector-engine/pkg/database"
	"github.com/datalinkhq/connector-engine/pkg/handlers"
	"github.com/datalinkhq/connector-engine/pkg/logging"
	"github.com/datalinkhq/connector-engine/pkg/middleware"
	"github.com/datalinkhq/connector-engine/pkg/repositories"
	"github.com/datalinkhq/connector-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("db_host", cfg.Database.Host),
		zap.Bool("param_encryption", cfg.Encryption.Enabled),
		zap.Duration("dispatch_timeout", cfg.Dispatch.Timeout()),
	)

	// Migrations run over database/sql; the service itself uses a pgx pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.NewConnection(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConnections)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	cipher, err := crypto.NewParamsCipher(cfg.Encryption.Secret, cfg.Encryption.Enabled)
	if err != nil {
		logger.Fatal("Failed to initialize parameter encryption", zap.Error(err))
	}

	registry := connectors.NewRegistry(logger)
	registry.Register(postgres.New())
	registry.Register(mysql.New())
	registry.Register(mongodb.New())
	registry.Register(redis.New())
	registry.Register(sheets.New())
	registry.Register(sqlserver.New())

	repo := repositories.NewConnectionRepository(db, cipher)
	dispatch := services.NewDispatchService(registry, repo, cfg.Dispatch.Timeout(), logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, registry, logger).RegisterRoutes(mux)
	handlers.NewConnectionsHandler(repo, dispatch, logger).RegisterRoutes(mux)
	handlers.NewConnectorsHandler(dispatch, logger).RegisterRoutes(mux)

	auditor := audit.NewSecurityAuditor(logger)
	handler := middleware.RequestLogger(logger)(
		middleware.CORS(
			middleware.APIKeyAuth(cfg.APIKey, auditor)(mux)))

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting connector-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
