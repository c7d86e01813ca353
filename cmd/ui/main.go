package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"wallclient/internal/gallery"
	"wallclient/internal/http/handlers"
	httpapi "wallclient/internal/http/httpapi"
	"wallclient/internal/infra"
	"wallclient/internal/jobclient"
	"wallclient/internal/providers/wallpaper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	client, err := wallpaper.NewClient(wallpaper.Options{
		BaseURL:        cfg.APIBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build wallpaper client")
	}

	loader := gallery.NewLoader(client, &logger)
	ctrl, err := jobclient.NewController(jobclient.Options{
		Backend: client,
		Gallery: loader,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build job controller")
	}
	defer ctrl.Close()

	app := handlers.NewApp(ctrl, loader, &logger, cfg.AllowedOrigins)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("api", client.BaseURL()).Msgf("UI listening on %s", server.Addr())
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		return
	}
	logger.Info().Msg("server stopped")
}
