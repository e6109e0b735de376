package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/gateway"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var bus events.Bus
	if config.NATS.URL != "" {
		natsConfig := events.DefaultNATSConfig()
		natsConfig.URL = config.NATS.URL
		natsBus, err := events.NewNATSBus(natsConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event bus")
		}
		bus = natsBus
	} else {
		bus = events.NewMemoryBus(256)
	}
	defer bus.Close()

	var database *sql.DB
	if config.Database.Enabled {
		database, err = setupDatabase()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		defer database.Close()
	}

	services, err := setupServices(ctx, database, bus, config.Export.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}

	gw := gateway.NewService(gateway.DefaultConfig(), bus, services.Plans, services.Winners, services.Timer)
	gw.Start(ctx)
	go services.Timer.Run(ctx)

	server := setupServer(config, gw)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}
