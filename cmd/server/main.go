package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/relaydesk/collab/internal/adapters/http"
	"github.com/relaydesk/collab/internal/adapters/ws"
	"github.com/relaydesk/collab/internal/auth"
	"github.com/relaydesk/collab/internal/config"
	"github.com/relaydesk/collab/internal/hub"
	"github.com/relaydesk/collab/internal/pubsub"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	h := hub.New(cfg.TypingTTL, hub.DropPolicy{})

	// Cross-process fan-out. An unreachable broker is surfaced, never
	// swallowed: fail fast or degrade per config.
	adapter, err := pubsub.NewRedisAdapter(ctx, cfg.Redis)
	if err != nil {
		if cfg.PubSubRequired {
			log.Fatal().Err(err).Msg("pubsub adapter required but unavailable")
		}
		log.Warn().Err(err).Msg("pubsub adapter unavailable, single-process delivery only")
	} else {
		if err := h.Bcast.Attach(ctx, adapter); err != nil {
			if cfg.PubSubRequired {
				log.Fatal().Err(err).Msg("pubsub subscribe failed")
			}
			log.Warn().Err(err).Msg("pubsub subscribe failed, single-process delivery only")
		}
		defer func() { _ = adapter.Close() }()
	}

	verifier := auth.NewVerifier(cfg.Secret)
	ctrl := ws.NewController(h, verifier, cfg)

	h.Typing.OnExpire(ctrl.NotifyTypingExpired)
	go h.Typing.Run(ctx)

	r := router.SetupRouter(ctx, cfg, ctrl, h)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("collab hub started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
