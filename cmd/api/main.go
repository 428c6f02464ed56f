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
	_ "time/tzdata"

	"nowas_backend/internal/admin"
	"nowas_backend/internal/ads"
	"nowas_backend/internal/email"
	"nowas_backend/internal/events"
	"nowas_backend/internal/exports"
	apphttp "nowas_backend/internal/http"
	"nowas_backend/internal/http/router"
	"nowas_backend/internal/leads"
	"nowas_backend/internal/leads/repository"
	"nowas_backend/internal/leads/service"
	"nowas_backend/internal/scheduler"
	"nowas_backend/internal/whatsapp"
	"nowas_backend/platform/config"
	"nowas_backend/platform/db"
	"nowas_backend/platform/httpkit"
	"nowas_backend/platform/logger"
	"nowas_backend/platform/session"
	"nowas_backend/platform/validator"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

const (
	notificationFromName = "NOWAS Landing"
	shutdownTimeout      = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "leadStore", cfg.LeadStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var redisClient *redis.Client
	if cfg.GetRedisURL() != "" {
		if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
			c, err := db.NewRedis(ctx, cfg.GetRedisURL())
			if err != nil {
				return err
			}
			redisClient = c
			return nil
		}); err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("redis connection established")
	}

	// Store clients are created before serving so a broken sheet fails startup.
	var store repository.Store
	var closeStore func()
	if err := withRetry(ctx, log, "lead store", 5, 2*time.Second, func() error {
		s, closer, err := openLeadStore(ctx, cfg)
		if err != nil {
			return err
		}
		store, closeStore = s, closer
		return nil
	}); err != nil {
		log.Error("failed to open lead store", "error", err, "backend", cfg.LeadStore)
		panic("failed to open lead store: " + err.Error())
	}
	defer closeStore()
	log.Info("lead store ready", "backend", store.Backend())

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender, err := newEmailSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	whatsappClient, err := whatsapp.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize whatsapp client", "error", err)
		panic("failed to initialize whatsapp client: " + err.Error())
	}
	log.Info("whatsapp client initialized", "mode", whatsappClient.Mode())

	reporter, err := ads.NewReporter(cfg, log)
	if err != nil {
		log.Error("failed to initialize conversion reporter", "error", err)
		panic("failed to initialize conversion reporter: " + err.Error())
	}
	reporter.Subscribe(eventBus)
	if reporter == nil {
		log.Info("conversion reporting disabled")
	}

	// Rate limiting and sessions share Redis when it is configured, so several
	// instances see the same counters and logins.
	housekeeper := scheduler.New(log)
	var windowCounter httpkit.WindowCounter
	var sessions session.Store
	if redisClient != nil {
		windowCounter = httpkit.NewRedisWindowCounter(redisClient)
		sessions = session.NewRedisStore(redisClient)
	} else {
		memWindows := httpkit.NewMemoryWindowCounter()
		memSessions := session.NewMemoryStore()
		mustSchedule(housekeeper, log, scheduler.NewPurgeJob("rate-limit-windows", memWindows, log))
		mustSchedule(housekeeper, log, scheduler.NewPurgeJob("admin-sessions", memSessions, log))
		windowCounter, sessions = memWindows, memSessions
	}
	intakeLimiter := httpkit.NewFixedWindowLimiter(windowCounter, cfg.GetRateLimitMax(), cfg.GetRateLimitWindow(), cfg.GetRateLimitMessage(), log)

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	intake := service.New(store, sender, whatsappClient, eventBus, val, log)
	leadsModule := leads.NewModule(intake, whatsappClient)
	downloads, err := exports.NewHandler(leadsModule.Service(), cfg)
	if err != nil {
		log.Error("failed to initialize exports", "error", err)
		panic("failed to initialize exports: " + err.Error())
	}
	adminModule := admin.NewModule(sessions, leadsModule.Service(), downloads, cfg, log)
	mustSchedule(housekeeper, log, scheduler.NewResetJob("admin-login-limiter", adminModule.LoginLimiter(), log))

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:        cfg,
		Logger:        log,
		Health:        store,
		IntakeLimiter: intakeLimiter,
		Modules: []apphttp.Module{
			leadsModule,
			adminModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return housekeeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	// Let in-flight conversion reports finish before the process exits.
	eventBus.Wait()
	log.Info("server stopped")
}

// openLeadStore connects the configured backend. The returned closer is
// always non-nil.
func openLeadStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	noop := func() {}

	switch cfg.GetLeadStore() {
	case config.LeadStoreSheets:
		opts := []option.ClientOption{
			repository.ServiceAccount(ctx, cfg.GetGoogleClientEmail(), cfg.GetGooglePrivateKey()),
		}
		if endpoint := cfg.GetSheetsEndpoint(); endpoint != "" {
			opts = append(opts, option.WithEndpoint(endpoint))
		}
		s, err := repository.NewSheetsStore(ctx, cfg.GetSpreadsheetID(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.LeadStorePostgres:
		pool, err := db.NewPool(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool), pool.Close, nil

	case config.LeadStoreSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLiteStore(conn), func() { _ = conn.Close() }, nil

	case config.LeadStoreMemory:
		return repository.NewMemoryStore(), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown lead store %q", cfg.GetLeadStore())
}

func newEmailSender(cfg *config.Config, log *logger.Logger) (email.Sender, error) {
	switch cfg.GetEmailProvider() {
	case config.EmailProviderSMTP:
		return email.NewSMTPSender(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(),
			cfg.GetEmailUser(), cfg.GetEmailPass(),
			cfg.GetEmailUser(), notificationFromName,
			cfg.GetNotifyEmailTo(),
		), nil
	case config.EmailProviderResend:
		s, err := email.NewResendSender(cfg.GetResendAPIKey(), cfg.GetEmailUser(), cfg.GetNotifyEmailTo(), "")
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.EmailProviderNoop:
		log.Warn("EMAIL_PROVIDER=noop; lead notifications are only logged")
		return email.NoopSender{Log: log}, nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
}

func mustSchedule(s *scheduler.Scheduler, log *logger.Logger, job scheduler.Job) {
	if err := s.Add(scheduler.DefaultHousekeepingSpec, job); err != nil {
		log.Error("failed to schedule housekeeping", "job", job.Name(), "error", err)
		panic("failed to schedule housekeeping: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
