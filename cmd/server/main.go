package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/cache"
	"github.com/opencommune/mairie-api/internal/config"
	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/ledger"
	"github.com/opencommune/mairie-api/internal/router"
	"github.com/opencommune/mairie-api/internal/service"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting Mairie API Server...")

	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	// Initialize database
	db, err := database.Initialize(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(logger); err != nil {
			logger.WithError(err).Fatal("Failed to run database migrations")
		}
	}

	logger.Info("Database connection established successfully")

	// Initialize DAOs
	doleanceDAO := dao.NewDoleanceDAO(db)
	doleanceHistoryDAO := dao.NewDoleanceHistoryDAO(db)
	attachmentDAO := dao.NewDoleanceAttachmentDAO(db)
	interventionDAO := dao.NewInterventionDAO(db)
	interventionHistoryDAO := dao.NewInterventionHistoryDAO(db)
	anchorDAO := dao.NewAnchorDAO(db)
	commissionDAO := dao.NewCommissionDAO(db)
	deliberationDAO := dao.NewDeliberationDAO(db)

	// Initialize ledger client; runs in no-op mode without a signing key
	ledgerClient := ledger.NewClient(&cfg.Ledger, logger)

	// Initialize the optional public-status cache
	redisClient := cache.NewRedisClient(&cfg.Redis, logger)
	statusCache := cache.NewPublicStatusCache(redisClient, cfg.Redis.TTL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	doleanceService := service.NewDoleanceService(
		doleanceDAO,
		doleanceHistoryDAO,
		attachmentDAO,
		anchorDAO,
		db,
		ledgerClient,
		statusCache,
		logger,
	)

	interventionService := service.NewInterventionService(
		interventionDAO,
		interventionHistoryDAO,
		anchorDAO,
		db,
		ledgerClient,
		logger,
	)

	commissionService := service.NewCommissionService(commissionDAO, logger)
	deliberationService := service.NewDeliberationService(deliberationDAO, logger)

	logger.Info("Services initialized successfully")

	// Setup router
	ginRouter := router.SetupRouter(
		cfg,
		db,
		doleanceService,
		interventionService,
		commissionService,
		deliberationService,
		logger,
	)

	// Configure HTTP server
	readTimeout := cfg.Server.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 15 * time.Second
	}
	idleTimeout := cfg.Server.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Hostname, cfg.Server.Port)
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine
	go func() {
		logger.WithField("addr", serverAddr).Info("Starting HTTP server...")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited gracefully")
}
