package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PitherGabriel/PuntodeVentaTB/clients"
	"github.com/PitherGabriel/PuntodeVentaTB/config"
	"github.com/PitherGabriel/PuntodeVentaTB/controllers"
	"github.com/PitherGabriel/PuntodeVentaTB/database"
	"github.com/PitherGabriel/PuntodeVentaTB/logger"
	"github.com/PitherGabriel/PuntodeVentaTB/middleware"
	aws_pkg "github.com/PitherGabriel/PuntodeVentaTB/pkg/aws"
	"github.com/PitherGabriel/PuntodeVentaTB/routes"
	"github.com/PitherGabriel/PuntodeVentaTB/services"
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "pos-terminal"

func main() {
	cfg := config.Load()

	// AWS is only touched when one of its integrations is configured.
	var (
		awsCfg sdkaws.Config
		awsErr error
		awsOK  bool
	)
	if cfg.CloudWatchEnabled || cfg.SalesTopicARN != "" || cfg.UseSecrets {
		awsCfg, awsErr = aws_pkg.LoadAWSConfig(context.Background())
		awsOK = awsErr == nil
	}
	if awsOK && cfg.UseSecrets {
		config.ApplySecrets(context.Background(), &cfg, aws_pkg.NewSecretsClient(awsCfg))
	}

	var logSink io.Writer
	var sinkErr error
	if awsOK && cfg.CloudWatchEnabled {
		w, err := aws_pkg.NewLogsWriter(context.Background(), awsCfg, cfg.LogGroup, serviceName)
		if err == nil {
			logSink = w
		}
		sinkErr = err
	}
	logger.InitializeWithWriter(cfg.Env, logSink)
	defer logger.Sync()
	log := logger.Log

	if awsErr != nil {
		log.Warn("AWS config unavailable, metrics, sale events and secrets disabled", zap.Error(awsErr))
	}
	if sinkErr != nil {
		log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(sinkErr))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gateway := clients.NewPOSGatewayClient(cfg.POSAPIURL, cfg.POSAPITimeout)

	// Redis is optional; without it checkout retries are not deduplicated.
	var idempotency services.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, idempotent checkout disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			idempotency = database.NewIdempotencyRepository(redisClient, cfg.IdempotencyTTL)
			log.Info("Idempotent checkout enabled", zap.Duration("ttl", cfg.IdempotencyTTL))
		}
	}

	var (
		metrics   aws_pkg.MetricsRecorder
		snsClient aws_pkg.SNSPublisher
	)
	if awsOK && cfg.CloudWatchEnabled {
		metrics = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, true)
	}
	if awsOK && cfg.SalesTopicARN != "" {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
	}

	terminal := services.NewTerminal(cfg.Features, cfg.DefaultSeller)
	catalog := services.NewCatalogService(terminal, gateway, metrics, log)
	checkout := services.NewCheckoutService(terminal, gateway, idempotency, snsClient, cfg.SalesTopicARN, metrics, log)
	sales := services.NewSalesService(gateway, cfg.HistoryLimit, cfg.Features.ProfitReport, log)
	session := services.NewSessionService(terminal, gateway, catalog, log)

	bootstrap(terminal, catalog, session, cfg.POSAPITimeout)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestID())
	router.Use(logger.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Idempotent-Replayed", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(middleware.PerMinute(cfg.RateLimitRPM)))
	router.Use(middleware.MetricsMiddleware(metrics, serviceName))

	routes.RegisterTerminalRoutes(router, routes.Handlers{
		Terminal: controllers.NewTerminalController(terminal),
		Checkout: controllers.NewCheckoutController(checkout, terminal),
		Catalog:  controllers.NewCatalogController(catalog),
		Sales:    controllers.NewSalesController(sales),
		Session:  controllers.NewSessionController(session),
	}, terminal, cfg.Features)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("POS terminal listening",
			zap.String("port", cfg.Port),
			zap.String("pos_api", cfg.POSAPIURL),
			zap.Any("features", cfg.Features))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	log.Info("Server shutdown complete")
}

// bootstrap resumes an existing POS API session, or loads the catalog
// directly when authentication is off. Failures are logged; the view can
// retry through the API.
func bootstrap(terminal *services.Terminal, catalog *services.CatalogService, session *services.SessionService, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if terminal.Features().Auth {
		if _, err := session.Check(ctx); err != nil {
			logger.Log.Warn("Initial session check failed", zap.Error(err))
		}
		return
	}
	if _, err := catalog.Refresh(ctx); err != nil {
		logger.Log.Warn("Initial catalog load failed", zap.Error(err))
	}
}
