package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/hr-portal/api"
	"github.com/frahmantamala/hr-portal/db"
	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/absence"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/internal/employee"
	"github.com/frahmantamala/hr-portal/internal/roster"
	"github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/scope"
	scopestore "github.com/frahmantamala/hr-portal/internal/scope/postgres"
	"github.com/frahmantamala/hr-portal/internal/session"
	sessionstore "github.com/frahmantamala/hr-portal/internal/session/postgres"
	"github.com/frahmantamala/hr-portal/internal/termination"
	"github.com/frahmantamala/hr-portal/internal/transport/rest"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server that serves the portal screens`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

var migrateOnStart bool

func init() {
	httpServerCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Client *rrhh.Client
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "backend", deps.Config.Backend.BaseURL)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	busCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.Bus.Shutdown(busCtx); err != nil {
		deps.Logger.Warn("Event bus shutdown incomplete", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	cfg := deps.Config

	verifier := session.NewTokenVerifier(cfg.Security.TokenSecret)
	sessions := session.NewService(sessionstore.NewCredentialRepository(deps.DB), verifier, lg)
	resolver := scope.NewResolver(scopestore.NewScopeRepository(deps.Gorm), lg)

	rest.RegisterAllRoutes(deps.Router, cfg, rest.Handlers{
		Health:  rest.NewHealthHandler(deps.DB.DB, cfg.Database.Driver),
		Session: session.NewHandler(sessions),
		Absence: absence.NewHandler(
			absence.NewReviewService(deps.Client, deps.Bus, lg),
			absence.NewSubmissionService(deps.Client, deps.Bus, lg),
			absence.NewStatusService(deps.Client, lg),
		),
		Employee:    employee.NewHandler(employee.NewService(deps.Client, deps.Bus, lg)),
		Roster:      roster.NewHandler(roster.NewService(deps.Client, resolver, lg)),
		Termination: termination.NewHandler(termination.NewService(deps.Client, resolver, deps.Bus, lg)),
	}, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := initLogger(config)

	if _, err := api.Load(context.Background()); err != nil {
		lg.Warn("openapi document is invalid", "error", err)
	}

	sqlDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if migrateOnStart {
		if err := db.Migrate(context.Background(), sqlDB.DB, config.Database.GooseDialect(), false); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	gormDB, err := initGorm(config.Database, sqlDB.DB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.SubscribeAuditLog(bus, lg)

	return &Dependencies{
		Config: config,
		DB:     sqlDB,
		Gorm:   gormDB,
		Client: rrhh.NewClient(rrhh.Config{BaseURL: config.Backend.BaseURL, Timeout: config.Backend.Timeout}, lg),
		Bus:    bus,
		Router: chi.NewRouter(),
		Logger: lg,
	}, nil
}

// initDB opens the client state store. sqlx and gorm share the returned pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.SQLDriverName()

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(cfg internal.DatabaseConfig, conn *sql.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.Driver == "postgres" {
		dialector = postgres.New(postgres.Config{Conn: conn})
	} else {
		dialector = sqlite.Dialector{DriverName: cfg.SQLDriverName(), Conn: conn}
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
