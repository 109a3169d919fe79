package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mediadrop/internal/adapters/fetcher"
	"mediadrop/internal/adapters/resolver"
	"mediadrop/internal/adapters/telegram"
	"mediadrop/internal/config"
	"mediadrop/internal/service"
	"mediadrop/internal/validate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "mediadrop",
		Short:         "Telegram bot that resolves media URLs and delivers the media back",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// It's okay if .env doesn't exist, environment variables might be
	// set manually.
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.AppEnv)
	if dotenvErr != nil {
		logger.Debug().Msg("no .env file found")
	}

	// One client per outbound concern; per-call timeouts are enforced
	// by the adapters, not globally here.
	httpClient := &http.Client{}

	resolverClient := resolver.NewClient(httpClient, cfg.ResolverURL, cfg.ResolverMethod, cfg.ResolverTimeout, logger)
	mediaFetcher := fetcher.NewHTTPFetcher(httpClient, cfg.FetchTimeout)
	messenger := telegram.NewMessenger(httpClient, cfg.TelegramAPIBaseURL, cfg.BotToken, logger)

	engine := service.NewEngine(messenger, mediaFetcher, service.DeliveryConfig{
		AlwaysFetchFirst:      cfg.AlwaysFetchFirst,
		EnableRemoteReference: cfg.EnableRemoteReference,
		EnableReupload:        cfg.EnableReupload,
		EnableLinkFallback:    cfg.EnableLinkFallback,
		MaxUploadBytes:        cfg.MaxUploadBytes,
	}, logger)

	pipeline := service.NewPipeline(
		validate.New(cfg.RequiredDomain),
		resolverClient,
		engine,
		messenger,
		cfg.RequestDeadline,
		logger,
	)

	listener := telegram.NewListener(messenger, pipeline, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("resolver", cfg.ResolverURL).
		Str("method", cfg.ResolverMethod).
		Msg("starting mediadrop")

	if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("listener stopped")
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}

// newLogger constructs a zerolog.Logger with sane defaults for the
// service: console output in development, JSON otherwise.
func newLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}
