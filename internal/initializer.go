package internal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"graveyard-manager/internal/config"
	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/routing"
	"graveyard-manager/internal/utils"
)

const (
	envFile         = ".env"
	shutdownTimeout = 10 * time.Second
)

func Init() {
	err := godotenv.Load(envFile)
	if err != nil {
		utils.LogMessage("info", "No .env file found, using environment variables from system")
	} else {
		utils.LogMessage("info", "Loaded environment variables from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	utils.SetLogLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	pool := initializeDatabase(cfg.Database)
	defer pool.Close()

	// Initialize database manager and bring the schema up to date
	databaseMgr := managers.NewDatabaseManager(pool)
	if err = databaseMgr.RunMigrations(context.Background()); err != nil {
		log.Fatal("Error applying migrations: ", err)
	}

	// Initialize mail, token and revocation managers
	mailMgr := managers.NewMailManager(cfg)
	tokenMgr := managers.NewTokenManager(cfg.SecretKey)
	revocationMgr := managers.NewRevocationManager(cfg.Redis)

	// Initialize router
	r := routing.InitRouter(cfg, databaseMgr, mailMgr, tokenMgr, revocationMgr)
	utils.LogMessage("info", "Initialized router")

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server on the specified port
	go func() {
		utils.LogMessage("info", "Starting server on port "+cfg.Port+"...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Error starting server: ", err)
		}
	}()

	// Handle interrupt signal gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	utils.LogMessage("info", "Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(ctx); err != nil {
		log.Error("Error during shutdown: ", err)
	}
	utils.LogMessage("info", "Server stopped")
}

func initializeDatabase(dbConfig config.DatabaseConfig) *pgxpool.Pool {
	utils.LogMessage("info", "Initializing database")

	poolConfig, err := pgxpool.ParseConfig(dbConfig.DSN())
	if err != nil {
		log.Fatal("error configuring database: ", err)
	}

	poolConfig.MinConns = 5
	poolConfig.MaxConns = 30
	poolConfig.MaxConnIdleTime = time.Minute * 2
	poolConfig.HealthCheckPeriod = time.Minute * 1

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatal("error connecting to database: ", err)
	}
	utils.LogMessage("info", "Connected to database")
	return pool
}
