package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/accessproxy/internal/api/http"
	"github.com/GriffinCanCode/accessproxy/internal/api/middleware"
	"github.com/GriffinCanCode/accessproxy/internal/api/ws"
	"github.com/GriffinCanCode/accessproxy/internal/domain/audit"
	"github.com/GriffinCanCode/accessproxy/internal/domain/login"
	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"github.com/GriffinCanCode/accessproxy/internal/domain/stream"
	"github.com/GriffinCanCode/accessproxy/internal/infrastructure/config"
	"github.com/GriffinCanCode/accessproxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/accessproxy/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	router     *gin.Engine
	httpServer *http.Server

	engine     *stream.Engine
	hub        *ws.Hub
	wsHandler  *ws.Handler
	tracer     *tracing.Tracer
	auditStore *audit.SQLiteStore
	metrics    *monitoring.Metrics
}

// NewServer builds a server that launches real Chrome browsers.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	launcher := browser.NewLauncher(browser.Options{
		ExecPath:  cfg.Browser.ExecPath,
		Headless:  cfg.Browser.Headless,
		Width:     cfg.Browser.ViewportWidth,
		Height:    cfg.Browser.ViewportHeight,
		UserAgent: cfg.Browser.UserAgentOrDefault(),
	}, logger.Named("browser"))
	return newServer(cfg, logger, launcher, prometheus.NewRegistry())
}

func newServer(cfg *config.Config, logger *zap.Logger, launcher session.Launcher, reg *prometheus.Registry) (*Server, error) {
	logger.Info("Initializing access proxy",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Duration("capture_interval", cfg.Stream.CaptureInterval),
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	tracer := tracing.New("accessproxy", logger.Named("trace"))

	selectors, err := login.LoadSelectors(cfg.Login.SelectorsFile)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("load login selectors: %w", err)
	}
	loginOpts := login.DefaultOptions()
	loginOpts.ProbeTimeout = cfg.Login.ProbeTimeout
	loginOpts.SubmitWait = cfg.Login.SubmitWait
	chain := login.NewDefaultChain(selectors, loginOpts, logger.Named("login")).WithRecorder(metrics)
	logger.Info("Login chain ready", zap.Strings("strategies", chain.Strategies()))

	sink, store, err := buildAudit(cfg.Audit, metrics, logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	registry := session.NewRegistry(launcher, logger.Named("session")).WithObserver(metrics)
	hub := ws.NewHub(metrics, logger)

	engineOpts := stream.DefaultOptions()
	engineOpts.CaptureInterval = cfg.Stream.CaptureInterval
	engineOpts.CaptureQuality = cfg.Stream.CaptureQuality
	engineOpts.NavigationTimeout = cfg.Stream.NavigationTimeout
	engineOpts.SettleDelay = cfg.Stream.SettleDelay
	engineOpts.InteractionDelay = cfg.Stream.InteractionDelay
	engineOpts.AuditTimeout = cfg.Audit.Timeout

	engine := stream.NewEngine(stream.Deps{
		Registry: registry,
		Chain:    chain,
		Emitter:  hub,
		Audit:    sink,
		Metrics:  metrics,
		Logger:   logger,
	}, engineOpts)

	wsOpts := ws.DefaultOptions()
	wsOpts.AllowedOrigins = cfg.CORS.Origins
	wsHandler := ws.NewHandler(engine, hub, tracer, wsOpts)

	var accessLog api.AccessLog
	if store != nil {
		accessLog = store
	}
	handlers := api.NewHandlers(engine, accessLog, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers.Register(router.Group("/api"))
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": fmt.Sprintf("Route %s not found", c.Request.URL.Path),
		})
	})

	logger.Info("Server initialized successfully")

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:     engine,
		hub:        hub,
		wsHandler:  wsHandler,
		tracer:     tracer,
		auditStore: store,
		metrics:    metrics,
	}, nil
}

// buildAudit assembles the access-event sinks. The log sink is always
// present; SQLite and HTTP forwarding are enabled by configuration.
func buildAudit(cfg config.AuditConfig, metrics *monitoring.Metrics, logger *zap.Logger) (audit.Sink, *audit.SQLiteStore, error) {
	sinks := []audit.Named{{Name: "log", Sink: audit.NewLogSink(logger.Named("audit"))}}

	var store *audit.SQLiteStore
	if cfg.DBPath != "" {
		var err error
		store, err = audit.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit store: %w", err)
		}
		sinks = append(sinks, audit.Named{Name: "sqlite", Sink: store})
		logger.Info("Audit store opened", zap.String("path", cfg.DBPath))
	}

	if cfg.Endpoint != "" {
		sinks = append(sinks, audit.Named{Name: "http", Sink: audit.NewHTTPForwarder(cfg.Endpoint, cfg.Timeout)})
		logger.Info("Audit forwarding enabled", zap.String("endpoint", cfg.Endpoint))
	}

	return audit.NewMulti(sinks...).WithRecorder(metrics), store, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, disconnects viewers, closes every
// browser and flushes traces and the audit store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	s.hub.Close()
	s.engine.Shutdown()
	if err := s.wsHandler.Wait(ctx); err != nil {
		s.logger.Warn("Session starts still running at shutdown", zap.Error(err))
	}
	// A start that was launching during the first pass registers late.
	s.engine.Shutdown()
	s.logger.Info("Closed all browser sessions")

	s.tracer.Close()

	if s.auditStore != nil {
		if err := s.auditStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit store: %w", err))
		}
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
