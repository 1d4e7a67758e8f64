// Package main is the entry point for the case-event callback API.
//
// It loads configuration, wires the notification engine (orchestrator,
// scheduler, external clients), builds the HTTP server with the core chassis
// (middleware, routing, health checks), and starts listening.
//
// In local mode (APP_ENV=local) the external collaborators are replaced with
// logging stubs so the service boots without provider credentials, and the
// scheduler poller runs in-process so deferred jobs fire without real SQS
// consumers.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"

	"appealnotify/internal/api/handlers"
	"appealnotify/internal/config"
	"appealnotify/internal/core"
	"appealnotify/internal/correspondence"
	"appealnotify/internal/db"
	"appealnotify/internal/external"
	"appealnotify/internal/notify"
	"appealnotify/internal/scheduler"
	"appealnotify/internal/templates"
	"appealnotify/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	typedLogger := &slogAdapter{logger: logger}
	local := cfg.Environment == "local"

	logger.Info("callback API starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	jobRepo := db.NewJobRepository(pool)
	jobScheduler := scheduler.New(jobRepo, typedLogger)

	// External collaborators: real clients by default, logging stubs in
	// local mode.
	var (
		sender   types.NotificationSender
		renderer types.CoverLetterRenderer
		docs     types.DocumentStore
		store    types.CorrespondenceStore
		verifier types.TokenVerifier
		registry types.TemplateRegistry
		metrics  notify.NotificationMetrics
	)

	if local {
		sender = external.NewStubSender(typedLogger)
		renderer = external.NewStubRenderer(typedLogger)
		docs = external.NewStubDocumentStore(typedLogger)
		store = external.NewStubCorrespondenceStore(typedLogger)
		verifier = external.NewStubVerifier(typedLogger)
		registry = external.NewStubRegistry(typedLogger)
	} else {
		sender = external.NewNotifyClient(cfg.Notify)
		renderer = external.NewPDFRenderClient(cfg.Documents)
		docs = external.NewDocumentStoreClient(cfg.Documents)
		store = external.NewCorrespondenceClient(cfg.Correspondence)
		verifier = external.NewTokenVerifierClient(cfg.Auth)

		if cfg.Templates.Path == "" {
			return fmt.Errorf("TEMPLATES_PATH is required outside local mode")
		}
		registry, err = templates.LoadFile(cfg.Templates.Path)
		if err != nil {
			return fmt.Errorf("loading template dataset: %w", err)
		}
	}

	metrics = notify.NoopMetrics{}
	var sqsClient *sqs.Client
	if !local {
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWS.Region))
		if awsErr != nil {
			return fmt.Errorf("loading AWS SDK config: %w", awsErr)
		}
		sqsClient = sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})

		if cfg.Observability.EnableMetrics {
			cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			metrics = notify.NewCloudWatchMetrics(cwClient,
				cfg.Observability.MetricNamespace, typedLogger)
		}
	}

	clock := types.RealClock{}

	gate, err := notify.NewGate(cfg.OutOfHours.Timezone,
		cfg.OutOfHours.StartHour, cfg.OutOfHours.EndHour)
	if err != nil {
		return fmt.Errorf("building out-of-hours gate: %w", err)
	}

	saver := correspondence.NewSaver(cfg.Correspondence, store, typedLogger)
	defer func() {
		if err := saver.Close(); err != nil {
			logger.Error("correspondence saver drain failed", "error", err)
		}
	}()

	retryPolicy := notify.NewRetryPolicy(cfg.Retry.MaxRetries, clock)
	handler := notify.NewDispatchHandler(jobScheduler, sender, retryPolicy, metrics, typedLogger)
	reminders := notify.NewReminderScheduler(typedLogger,
		notify.DefaultStrategies(jobScheduler, clock)...)

	orchestrator := notify.NewOrchestrator(notify.OrchestratorConfig{
		Evaluator:      notify.NewEvaluator(clock),
		Gate:           gate,
		Handler:        handler,
		Reminders:      reminders,
		Registry:       registry,
		Sender:         sender,
		Composer:       notify.NewComposer(renderer, docs, typedLogger),
		Scheduler:      jobScheduler,
		Correspondence: saver,
		Metrics:        metrics,
		Logger:         typedLogger,
		Clock:          clock,
	})

	// Local mode: run the due-job poller in-process and feed fired jobs
	// straight back into the orchestrator, since no SQS worker exists.
	if local {
		go runLocalPoller(ctx, jobRepo, orchestrator, clock, typedLogger)
	} else if sqsClient != nil {
		publisher := scheduler.NewPublisher(sqsClient, cfg.AWS.JobQueue, clock, typedLogger)
		poller := scheduler.NewPoller(jobRepo, publisher, clock, typedLogger)
		go func() {
			if err := poller.Run(ctx); err != nil {
				logger.Error("scheduler poller stopped", "error", err)
			}
		}()
	}

	srv, err := core.NewServer(cfg, logger, verifier)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = []core.HealthProbe{db.NewProbe(pool)}

	callbackHandler := handlers.NewCallbackHandler(orchestrator, srv.Validator, logger)
	srv.RouteRegistrars = append(srv.RouteRegistrars, func(r chi.Router) {
		callbackHandler.RegisterRoutes(r)
	})
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// runLocalPoller sweeps due jobs once a minute and resumes them in-process.
func runLocalPoller(ctx context.Context, repo *db.JobRepository, orch *notify.Orchestrator,
	clock types.Clock, logger types.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		due, err := repo.MarkDuePublished(ctx, clock.Now(), 50)
		if err != nil {
			logger.Error("local poller sweep failed", "error", err)
			continue
		}
		for _, pending := range due {
			if claimed, err := repo.Claim(ctx, pending.ID); err != nil || !claimed {
				continue
			}
			if err := resumeJob(ctx, orch, pending.Job); err != nil {
				logger.Error("local job resume failed",
					"job_id", pending.ID,
					"group", pending.Job.Group,
					"error", err,
				)
			}
		}
	}
}

// resumeJob routes a fired job by kind, mirroring the SQS worker.
func resumeJob(ctx context.Context, orch *notify.Orchestrator, job types.Job) error {
	switch job.Kind {
	case types.JobKindSendRetry:
		return orch.ResumeSend(ctx, job.Payload)
	default:
		nctx, err := notify.DecodeDispatchJob(job.Payload)
		if err != nil {
			return err
		}
		return orch.Dispatch(ctx, nctx)
	}
}

// runHTTPServer starts the server with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
type slogAdapter struct {
	logger *slog.Logger
}

var _ types.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}
