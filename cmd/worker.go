package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/gatherly/services/events/config"
	"example.com/gatherly/services/events/internal/cache"
	"example.com/gatherly/services/events/internal/messaging"
	"example.com/gatherly/services/events/internal/metrics"
	"example.com/gatherly/services/events/internal/notify"
	"example.com/gatherly/services/events/internal/repositories"
	"example.com/gatherly/services/events/internal/search"
	"example.com/gatherly/services/events/internal/services"
	"example.com/gatherly/services/events/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that sweeps past events into the completed state`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

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

	// Start the completion sweeper cron job
	g.Go(func() error {
		log.Info().Dur("interval", cfg.Sweeper.Interval).Msg("Starting completion sweeper")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Sweeper.Interval),
			gocron.NewTask(func() {
				completed, err := eventService.SweepCompletions(ctx)
				if err != nil {
					log.Error().Err(err).Msg("Completion sweep failed")
					return
				}
				if completed > 0 {
					log.Info().Int("completed", completed).Msg("Completion sweep finished")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
