// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"sitepulse/api/database"
	"sitepulse/api/handlers"
	"sitepulse/api/logger"
	"sitepulse/api/middleware"
	"sitepulse/api/monitoring"
	"sitepulse/api/reporter"
	"sitepulse/api/store"
	"sitepulse/api/utils"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	// Load .env file at the very start
	envErr := godotenv.Load()

	appLog, err := logger.NewLogger(os.Getenv("APP_DEBUG") == "true")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	if envErr != nil {
		appLog.Warn("No .env file found", logger.Error(envErr))
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize PostgreSQL Database (for the report audit log) ---
	dbClient, err := database.NewPostgresDB(appLog)
	if err != nil {
		appLog.Error("Failed to initialize PostgreSQL database", logger.Error(err))
		os.Exit(1)
	}
	defer dbClient.Close()

	// --- Initialize ClickHouse Database (for visit events) ---
	chClient, err := database.NewClickHouseDB(appLog)
	if err != nil {
		appLog.Error("Failed to initialize ClickHouse database", logger.Error(err))
		os.Exit(1)
	}
	defer chClient.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()
	if err := dbClient.EnsureSchema(startupCtx); err != nil {
		appLog.Error("Failed to ensure PostgreSQL schema", logger.Error(err))
		os.Exit(1)
	}
	if err := chClient.EnsureSchema(startupCtx); err != nil {
		appLog.Error("Failed to ensure ClickHouse schema", logger.Error(err))
		os.Exit(1)
	}

	// --- Initialize Stores ---
	reportStore := store.NewReportStore(dbClient.DB, appLog)
	visitStore := store.NewVisitStore(chClient, appLog)

	salt := os.Getenv("VISITOR_HASH_SALT")
	if salt == "" {
		appLog.Warn("VISITOR_HASH_SALT is not set; visitor hashes are unsalted")
	}
	hasher := utils.NewVisitorHasher(salt)

	metrics := monitoring.New(prometheus.DefaultRegisterer)
	dauReporter := reporter.New(reportStore, appLog, metrics)

	// --- Initialize Handlers ---
	analyticsHandlers := handlers.NewAnalyticsHandlers(visitStore, hasher, appLog, metrics)
	reportHandlers := handlers.NewReportHandlers(dauReporter, reportStore, appLog)

	r := gin.New()

	// Visits are posted from the monitored sites' own origins.
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestLogger(appLog))
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(monitoring.Handler()))
	r.GET("/integration.json", reportHandlers.IntegrationJSON)
	r.POST("/tick", reportHandlers.Tick)

	api := r.Group("/api")
	{
		api.POST("/track-visit", middleware.BotFilter(), analyticsHandlers.TrackVisit)
		api.GET("/analytics/daily", analyticsHandlers.GetDailyAnalytics)
		api.GET("/reports", reportHandlers.RecentReports)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		appLog.Info("DAU monitor API listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Error("Server failed to start", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("Server forced to shutdown", logger.Error(err))
		os.Exit(1)
	}

	appLog.Info("Server exiting.")
}
