package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carepilot/internal/app"
	"carepilot/internal/config"
	"carepilot/internal/handler"
	"carepilot/internal/logging"
	"carepilot/internal/router"
	"carepilot/internal/service"
	"carepilot/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sessions live in memory and are swept until the HTTP server has
	// drained, so in-flight session work is not cancelled by the signal.
	store := session.NewStore(cfg.Session, logger)
	storeCtx, stopStore := context.WithCancel(context.Background())
	defer stopStore()
	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		store.Run(storeCtx)
	}()

	sessionSvc := service.NewSessionService(store, pipeline.Intake, pipeline.Chat, logger)

	maxBytes := cfg.Intake.MaxUploadBytes()
	r := router.Setup(cfg, logger, router.Handlers{
		Intake:  handler.NewIntakeHandler(pipeline.Intake, maxBytes),
		Chat:    handler.NewChatHandler(pipeline.Chat),
		Session: handler.NewSessionHandler(sessionSvc, maxBytes),
		Health: handler.NewHealthHandler(handler.ReadinessCheck{
			Name:  "providers",
			Check: app.CheckCredentials(cfg),
		}),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	extractor, chatModel := pipeline.Providers()
	logger.Info().
		Str("addr", cfg.Server.Port).
		Str("extractor", extractor).
		Str("chat", chatModel).
		Msg("server starting")
	if err := app.CheckCredentials(cfg)(ctx); err != nil {
		logger.Warn().Err(err).Msg("model calls will fail until credentials are configured")
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		stopStore()
		<-storeDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	return shutdown(srv, cfg.Server.ShutdownTimeout, logger, stopStore, storeDone)
}

// shutdown drains the HTTP server first and only then stops the session
// store, which cancels whatever session work is still running.
func shutdown(srv *http.Server, timeout time.Duration, logger zerolog.Logger, stopStore context.CancelFunc, storeDone <-chan struct{}) error {
	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	stopStore()
	<-storeDone
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
