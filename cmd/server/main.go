package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/aq10-triage/internal/config"
	apperrors "github.com/ZanzyTHEbar/aq10-triage/internal/errors"
	"github.com/ZanzyTHEbar/aq10-triage/internal/frontend"
	"github.com/ZanzyTHEbar/aq10-triage/internal/model"
	"github.com/ZanzyTHEbar/aq10-triage/internal/monitoring"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
	"github.com/ZanzyTHEbar/aq10-triage/internal/security"
)

func main() {
	configPath := flag.String("config", "", "path to a config.yaml file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Logging.Level)
	appLogger := monitoring.NewLogger(level)
	slog.SetDefault(appLogger.Logger)

	// Artifacts are required: the service never starts without them
	artifacts, err := model.Load(cfg.Artifacts.Dir, cfg.Artifacts.Files())
	if err != nil {
		appErr := apperrors.NewConfigurationError("Failed to load model artifacts", err)
		slog.Error(appErr.Error(), "dir", cfg.Artifacts.Dir, "cause", err)
		os.Exit(1)
	}

	srv, err := newServer(cfg, artifacts, appLogger, monitoring.NewMetrics())
	if err != nil {
		appErr := apperrors.ToAppError(err)
		slog.Error(appErr.Error(), "dir", cfg.Artifacts.Dir, "cause", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	r := newRouter(srv)

	stopCleanup := make(chan struct{})
	srv.limiter.StartCleanup(5*time.Minute, stopCleanup)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.SystemLogger("startup", "listening on :"+cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// server holds everything the handlers share. All of it is read-only after startup.
type server struct {
	cfg       *config.Config
	artifacts *model.Artifacts
	screener  *screening.Screener
	logger    *monitoring.Logger
	metrics   *monitoring.Metrics
	renderer  *frontend.Renderer
	limiter   *security.IPRateLimiter
}

func newServer(cfg *config.Config, artifacts *model.Artifacts, logger *monitoring.Logger, metrics *monitoring.Metrics) (*server, error) {
	binding, err := artifacts.Binding(cfg.Artifacts.StrictBinding)
	if err != nil {
		return nil, err
	}

	logger.ArtifactLogger(
		cfg.Artifacts.Dir,
		string(artifacts.Classifier.Kind),
		len(artifacts.Columns),
		bindingMode(artifacts),
		binding.Missing(),
	)

	renderer, err := frontend.LoadTemplates()
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load page templates", err)
	}

	s := &server{
		cfg:       cfg,
		artifacts: artifacts,
		screener:  screening.NewScreener(binding, artifacts.Scaler, artifacts.Classifier),
		logger:    logger,
		metrics:   metrics,
		renderer:  renderer,
	}
	s.limiter = security.NewIPRateLimiter(cfg.Security.RateLimitPerMin).OnReject(s.rejectRateLimited)
	return s, nil
}

func bindingMode(a *model.Artifacts) string {
	if a.Declared != nil {
		return "declared"
	}
	return "keyword"
}
