package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"camwall/internal/core/domain"
	"camwall/internal/core/services"
	httphandlers "camwall/internal/handlers/http"
	"camwall/internal/infrastructure/events"
	"camwall/internal/infrastructure/ingest"
	"camwall/internal/infrastructure/middleware"
	"camwall/internal/infrastructure/monitoring"
	onvifctl "camwall/internal/infrastructure/onvif"
	"camwall/internal/infrastructure/probe"
	"camwall/internal/infrastructure/repositories"
	"camwall/pkg/config"
	"camwall/pkg/logger"
	"camwall/pkg/tracing"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/camwall/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "camwall",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	cameraRepo := repoFactory.CreateCameraRepository()

	// Seed camera assignments from config
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 5*time.Second)
	for _, cc := range cfg.Cameras {
		cc.ApplyDefaults()
		camera := &domain.Camera{
			Position:  domain.Position(cc.Position),
			Name:      cc.Name,
			Host:      cc.Host,
			RTSPPort:  cc.RTSPPort,
			ONVIFPort: cc.ONVIFPort,
			Audio:     cc.Audio,
			Preferred: domain.Quality(cc.Quality),
		}
		if err := cameraRepo.Save(seedCtx, camera); err != nil {
			log.Errorw("failed to seed camera", "position", cc.Position, "error", err)
		}
	}
	seedCancel()

	creds := domain.Credentials{
		Username: cfg.Credentials.Username,
		Password: cfg.Credentials.Password,
	}

	// Initialize monitoring
	prometheusCollector := monitoring.NewPrometheusCollector()

	// Initialize event hub
	hub := events.NewHub(
		cfg.Events.PingInterval,
		cfg.Events.PongTimeout,
		cfg.Events.WriteTimeout,
		cfg.Events.SendBuffer,
		prometheusCollector,
		log,
	)

	// Initialize services
	metricsService := services.NewMetricsService()
	runner := ingest.NewRTSPRunner(log)
	prober := probe.NewTCPProber(log)
	feedService := services.NewFeedService(
		cameraRepo, runner, prober, hub, prometheusCollector, metricsService, creds, cfg, log,
	)
	viewService := services.NewViewService(feedService, cameraRepo, hub, metricsService, log)
	ptzController := onvifctl.NewController(creds, log)
	ptzService := services.NewPTZService(
		ptzController, cameraRepo, viewService, prometheusCollector, metricsService, cfg, log,
	)
	authService := services.NewAuthService(cfg, log)

	// Fresh event clients start from the current wall and feed state
	hub.SetSnapshot(func() []interface{} {
		out := []interface{}{domain.WallEvent{Type: "wall_state", Wall: viewService.Wall()}}
		for _, status := range feedService.Statuses() {
			out = append(out, domain.FeedEvent{Type: "feed_state", Status: status})
		}
		return out
	})

	// Start feed supervision
	if err := feedService.StartAll(context.Background()); err != nil {
		log.Errorw("failed to start feeds", "error", err)
	}

	// Initialize HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService)
	wallHandler := httphandlers.NewWallHandler(viewService, feedService, metricsService)
	cameraHandler := httphandlers.NewCameraHandler(cameraRepo, feedService)
	ptzHandler := httphandlers.NewPTZHandler(ptzService)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestLoggerMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	// Setup auth routes (public)
	authHandler.SetupRoutes(router)

	// Event stream
	router.GET("/ws", gin.WrapF(hub.HandleWebSocket))

	// Authenticated API
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		api.GET("/wall", wallHandler.GetWall)
		api.POST("/wall/focus", wallHandler.Focus)
		api.POST("/wall/grid", wallHandler.Grid)
		api.PUT("/wall/positions/:pos/audio", wallHandler.SetAudio)
		api.GET("/metrics", wallHandler.GetMetrics)

		api.GET("/cameras", cameraHandler.ListCameras)
		api.GET("/cameras/:pos", cameraHandler.GetCamera)
		api.PUT("/cameras/:pos", cameraHandler.PutCamera)
		api.DELETE("/cameras/:pos", cameraHandler.DeleteCamera)
		api.POST("/cameras/:pos/restart", cameraHandler.RestartFeed)

		api.POST("/ptz/:pos/move", ptzHandler.Move)
		api.POST("/ptz/:pos/stop", ptzHandler.Stop)
		api.POST("/ptz/:pos/nudge", ptzHandler.Nudge)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
			"clients":   hub.ClientCount(),
		})
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{
				"status":       "not_ready",
				"timestamp":    time.Now(),
				"dependencies": "unhealthy",
				"error":        err.Error(),
			})
			return
		}

		c.JSON(200, gin.H{
			"status":       "ready",
			"timestamp":    time.Now(),
			"dependencies": "ok",
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting camwall server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down camwall server...")

	// Stop feeds first so sessions close before the HTTP drain
	feedService.Shutdown()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("camwall stopped")
}
