package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/jobboard-forms/internal/config"
	"github.com/jonathan/jobboard-forms/internal/db"
	"github.com/jonathan/jobboard-forms/internal/jobapi"
	"github.com/jonathan/jobboard-forms/internal/server"
	"github.com/jonathan/jobboard-forms/internal/server/ratelimit"
	"github.com/jonathan/jobboard-forms/internal/store"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// sweepInterval is how often expired in-memory sessions are dropped.
const sweepInterval = 5 * time.Minute

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the form API server",
	Long:  `Start an HTTP server that keeps job posting form sessions and submits them to the job posting API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and the config file)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cfg.JobAPIBaseURL == "" {
		return fmt.Errorf("JOB_API_BASE_URL environment variable is required")
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(verbose || cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := openStore(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close() }()

	client, err := jobapi.NewClient(jobapi.Options{
		BaseURL: cfg.JobAPIBaseURL,
		Timeout: cfg.JobAPITimeoutDuration(),
		Mode:    jobapi.PayloadMode(cfg.PayloadMode),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create job api client: %w", err)
	}

	deps := server.Deps{
		Store:       sessions,
		Loader:      client,
		Submitter:   submission.NewAssembler(client, logger),
		Tokens:      server.NewJWTService(jwtCfg).AsTokenValidator(),
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:      logger,
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		deps.Audit = database
	} else {
		logger.Info("DATABASE_URL not set, submission history disabled")
	}

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// openStore returns the Redis session store when REDIS_URL is set and an
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	ttl := cfg.FormTTLDuration()

	if cfg.RedisURL != "" {
		rs, err := store.NewRedisStore(ctx, cfg.RedisURL, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		logger.Info("form sessions stored in redis", zap.Duration("ttl", ttl))
		return rs, nil
	}

	mem := store.NewMemoryStore(ttl)
	go sweepSessions(ctx, mem, sweepInterval, logger)
	logger.Info("form sessions stored in memory", zap.Duration("ttl", ttl))
	return mem, nil
}

func sweepSessions(ctx context.Context, mem *store.MemoryStore, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				logger.Debug("expired form sessions dropped", zap.Int("count", n))
			}
		}
	}
}
