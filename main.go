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

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/raine/telegram-classifieds-bot/config"
	"github.com/raine/telegram-classifieds-bot/internal/blobstore"
	"github.com/raine/telegram-classifieds-bot/internal/bot"
	"github.com/raine/telegram-classifieds-bot/internal/listing"
	"github.com/raine/telegram-classifieds-bot/internal/metrics"
	"github.com/raine/telegram-classifieds-bot/internal/notify"
	"github.com/raine/telegram-classifieds-bot/internal/telegram"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		bot.FatalWithWait("invalid configuration: %v", err)
	}

	logFile := setupLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		bot.FatalWithWait("failed to initialize telegram bot: %v", err)
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	// Register bot commands for Telegram's command menu
	telegram.RegisterCommands(tg)

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openListingStore(cfg)
	if err != nil {
		bot.FatalWithWait("failed to initialize listing store: %v", err)
	}
	defer store.Close()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		bot.FatalWithWait("failed to initialize photo storage: %v", err)
	}

	var notifier bot.Notifier
	if cfg.NATSURL != "" {
		publisher, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			bot.FatalWithWait("failed to connect to nats: %v", err)
		}
		defer publisher.Close()
		notifier = publisher
		log.Info().Str("subject", cfg.NATSSubject).Msg("publishing listing events to nats")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		bot.FatalWithWait("failed to register metrics: %v", err)
	}

	b := bot.NewBot(bot.Options{
		Gateway:        telegram.NewGateway(tg, nil),
		Store:          store,
		Blobs:          blobs,
		Notifier:       notifier,
		Metrics:        m,
		Currency:       cfg.Currency,
		SessionTimeout: cfg.SessionTimeout,
	})
	defer b.Shutdown()

	g, ctx := errgroup.WithContext(ctx)

	// Run bot update loop
	g.Go(func() error {
		return runBot(ctx, tg, b)
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsAddr, registry)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// setupLogging applies the log level and, outside systemd, tees the log to
// cfg.LogFile. The returned file, if any, must be closed by the caller.
func setupLogging(cfg *config.Config) *os.File {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JOURNAL_STREAM is set by systemd when running as a service.
	// Skip file logging under systemd (journald handles it).
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd || cfg.LogFile == "" {
		return nil
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		bot.FatalWithWait("failed to open log file: %v", err)
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

	log.Info().Str("logFile", cfg.LogFile).Msg("logging to file")
	return logFile
}

func openListingStore(cfg *config.Config) (listing.Store, error) {
	switch cfg.ListingStore {
	case config.ListingStoreSQLite:
		log.Info().Str("dsn", cfg.SQLiteDSN).Msg("using sqlite listing store")
		return listing.NewSQLiteStore(cfg.SQLiteDSN)
	default:
		log.Info().Msg("using in-memory listing store")
		return listing.NewMemoryStore(), nil
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (bot.BlobStore, error) {
	switch cfg.BlobStore {
	case config.BlobStoreMinIO:
		log.Info().Str("endpoint", cfg.MinIOEndpoint).Str("bucket", cfg.MinIOBucket).Msg("storing photos in minio")
		return blobstore.NewMinIOStore(ctx, blobstore.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			Region:    cfg.MinIORegion,
		})
	default:
		log.Info().Str("dir", cfg.PhotosDir).Msg("storing photos on disk")
		return blobstore.NewFileStore(cfg.PhotosDir)
	}
}

// runBot feeds Telegram updates to the bot. HandleEvent only enqueues, so
// per-user ordering follows the update order.
func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				return nil
			}
			ev, ok := telegram.TranslateUpdate(update)
			if !ok {
				continue
			}
			b.HandleEvent(ctx, ev)
		}
	}
}

func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
