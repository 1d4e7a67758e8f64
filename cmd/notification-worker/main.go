// Package main is the entrypoint for the notification worker Lambda.
//
// The worker consumes scheduled-job messages from the job SQS queue. Each
// message is a fired job: a deferred out-of-hours dispatch, a reminder, or a
// single-channel send retry. Before acting, the worker claims the job row in
// the store; a missing row means the group was cancelled after the message
// was published, and the message is dropped.
//
// Cold start wires the same dispatch engine as cmd/api. Local mode
// (APP_ENV=local) reads a JSON SQS event from stdin instead of starting the
// Lambda runtime, which enables integration testing without the AWS runtime
// emulator.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"appealnotify/internal/config"
	"appealnotify/internal/correspondence"
	"appealnotify/internal/db"
	"appealnotify/internal/external"
	"appealnotify/internal/notify"
	"appealnotify/internal/scheduler"
	"appealnotify/internal/templates"
	"appealnotify/internal/types"
)

// JobClaimer confirms a fired job still exists and removes it, so that
// cancellation wins any race with delivery.
type JobClaimer interface {
	Claim(ctx context.Context, id string) (bool, error)
}

// Resumer is the subset of the orchestrator the worker drives.
type Resumer interface {
	Dispatch(ctx context.Context, nctx notify.Context) error
	ResumeSend(ctx context.Context, payload []byte) error
}

// Handler holds the worker dependencies.
type Handler struct {
	claimer JobClaimer
	resumer Resumer
	logger  types.Logger
}

// Handle processes an SQS event batch. Messages are independent; failures
// are reported per message so SQS redelivers only those.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.Error("failed to process job message",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

// processMessage handles a single fired job.
func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var msg types.JobMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		h.logger.Error("failed to unmarshal job message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		// Permanent parse failure, do not redeliver.
		return nil
	}

	logger := h.logger.With(
		"job_id", msg.JobID,
		"group", msg.Group,
		"name", msg.Name,
		"kind", string(msg.Kind),
	)

	claimed, err := h.claimer.Claim(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}
	if !claimed {
		logger.Info("job row gone, group was cancelled; dropping")
		return nil
	}

	payload, err := types.DecompressPayload(msg.Payload)
	if err != nil {
		logger.Error("job payload corrupt; dropping", "error", err.Error())
		return nil
	}

	switch msg.Kind {
	case types.JobKindSendRetry:
		if err := h.resumer.ResumeSend(ctx, payload); err != nil {
			return fmt.Errorf("resume send: %w", err)
		}
	default:
		nctx, err := notify.DecodeDispatchJob(payload)
		if err != nil {
			logger.Error("dispatch payload corrupt; dropping", "error", err.Error())
			return nil
		}
		if err := h.resumer.Dispatch(ctx, nctx); err != nil {
			return fmt.Errorf("resume dispatch: %w", err)
		}
	}

	logger.Info("job resumed")
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	typedLogger := &slogAdapter{logger: logger}

	logger.Info("notification worker initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	local := cfg.Environment == "local"

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	jobRepo := db.NewJobRepository(pool)
	jobScheduler := scheduler.New(jobRepo, typedLogger)

	var (
		sender   types.NotificationSender
		renderer types.CoverLetterRenderer
		docs     types.DocumentStore
		store    types.CorrespondenceStore
		registry types.TemplateRegistry
	)
	if local {
		sender = external.NewStubSender(typedLogger)
		renderer = external.NewStubRenderer(typedLogger)
		docs = external.NewStubDocumentStore(typedLogger)
		store = external.NewStubCorrespondenceStore(typedLogger)
		registry = external.NewStubRegistry(typedLogger)
	} else {
		sender = external.NewNotifyClient(cfg.Notify)
		renderer = external.NewPDFRenderClient(cfg.Documents)
		docs = external.NewDocumentStoreClient(cfg.Documents)
		store = external.NewCorrespondenceClient(cfg.Correspondence)

		if cfg.Templates.Path == "" {
			logger.Error("TEMPLATES_PATH is required outside local mode")
			os.Exit(1)
		}
		registry, err = templates.LoadFile(cfg.Templates.Path)
		if err != nil {
			logger.Error("failed to load template dataset", "error", err)
			os.Exit(1)
		}
	}

	var metrics notify.NotificationMetrics = notify.NoopMetrics{}
	if !local && cfg.Observability.EnableMetrics {
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWS.Region))
		if awsErr != nil {
			logger.Error("failed to load AWS SDK config", "error", awsErr)
			os.Exit(1)
		}
		cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		metrics = notify.NewCloudWatchMetrics(cwClient,
			cfg.Observability.MetricNamespace, typedLogger)
	}

	clock := types.RealClock{}

	gate, err := notify.NewGate(cfg.OutOfHours.Timezone,
		cfg.OutOfHours.StartHour, cfg.OutOfHours.EndHour)
	if err != nil {
		logger.Error("failed to build out-of-hours gate", "error", err)
		os.Exit(1)
	}

	saver := correspondence.NewSaver(cfg.Correspondence, store, typedLogger)
	retryPolicy := notify.NewRetryPolicy(cfg.Retry.MaxRetries, clock)
	dispatchHandler := notify.NewDispatchHandler(jobScheduler, sender, retryPolicy, metrics, typedLogger)
	reminders := notify.NewReminderScheduler(typedLogger,
		notify.DefaultStrategies(jobScheduler, clock)...)

	orchestrator := notify.NewOrchestrator(notify.OrchestratorConfig{
		Evaluator:      notify.NewEvaluator(clock),
		Gate:           gate,
		Handler:        dispatchHandler,
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

	handler := &Handler{
		claimer: jobRepo,
		resumer: orchestrator,
		logger:  typedLogger,
	}

	logger.Info("notification worker initialized",
		"environment", cfg.Environment,
		"job_queue", cfg.AWS.JobQueue,
	)

	// Local mode: read a JSON SQS event from stdin instead of starting the
	// Lambda runtime.
	if local {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil || len(payload) == 0 {
			logger.Error("no SQS event on stdin", "error", err)
			os.Exit(1)
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			logger.Error("failed to parse stdin as SQS event", "error", err)
			os.Exit(1)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			logger.Error("handler execution failed", "error", err)
			os.Exit(1)
		}
		if err := saver.Close(); err != nil {
			logger.Error("correspondence saver drain failed", "error", err)
		}
		logger.Info("handler execution completed",
			"records_processed", len(sqsEvent.Records),
			"failures", len(response.BatchItemFailures),
		)
		return
	}

	lambda.Start(handler.Handle)
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
