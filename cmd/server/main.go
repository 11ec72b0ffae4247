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

	router "github.com/mrCamelCode/orion/internal/adapters/http"
	"github.com/mrCamelCode/orion/internal/adapters/udp"
	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	sessions := app.NewSessionRegistry()

	datagrams, err := udp.Listen(cfg.UDPPort, sessions, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to open udp socket")
		os.Exit(1)
	}

	lobbies := app.NewLobbyRegistry(sessions, app.MediatorTimings{
		ReminderInterval: cfg.ReminderInterval(),
		CaptureTimeout:   cfg.CaptureTimeout(),
		ConnectTimeout:   cfg.ConnectTimeout(),
	}, datagrams.Port())
	datagrams.Bind(lobbies)

	r := router.SetupRouter(ctx, sessions, lobbies)
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go datagrams.Serve()
	go func() {
		log.Info().Str("addr", addr).Int("udpPort", datagrams.Port()).Msg("Orion server started")
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
	datagrams.Close()
	lobbies.Shutdown()
	sessions.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
