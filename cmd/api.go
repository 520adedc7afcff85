package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/gatherly/services/events/config"
	"example.com/gatherly/services/events/internal/api"
	"example.com/gatherly/services/events/internal/cache"
	"example.com/gatherly/services/events/internal/messaging"
	"example.com/gatherly/services/events/internal/metrics"
	"example.com/gatherly/services/events/internal/models"
	"example.com/gatherly/services/events/internal/notify"
	"example.com/gatherly/services/events/internal/repositories"
	"example.com/gatherly/services/events/internal/search"
	"example.com/gatherly/services/events/internal/services"
	"example.com/gatherly/services/events/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to handle event and signup requests`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database connection
	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.NewDisabledTracer()
	}
	defer tracer.Close()

	// Initialize Elasticsearch client
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	// Initialize transition publisher
	publisher, err := messaging.NewServiceBusPublisher(cfg.ServiceBus)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus publisher, continuing without event publishing")
		publisher = messaging.NewNoopPublisher()
	}
	defer publisher.Close()

	// Initialize outbound mail
	mailer, err := notify.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		return errors.Wrap(err, "failed to initialize SMTP mailer")
	}
	notifier := notify.NewNotifier(mailer, cfg.Notify.OpsAddress, cfg.Notify.SendTimeout)

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize services
	eventService := services.NewEventService(
		repositories.NewEventRepository(db),
		repositories.NewSignupRepository(db),
		notifier,
		redisCache,
		elasticClient,
		publisher,
		metricsCollector,
		tracer,
		cfg.Notify.BaseURL,
	)

	// Initialize and start the server
	server := api.NewServer(cfg, eventService, metricsCollector, tracer)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

func initDatabase(cfg config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := models.SetupModels(db); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying DB connection")
	}

	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return db, nil
}
