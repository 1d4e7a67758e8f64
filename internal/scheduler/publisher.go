package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"appealnotify/internal/types"
)

// maxSQSDelay is the hard SQS per-message delay ceiling. Jobs further out
// than this stay in the store until the poller's horizon reaches them.
const maxSQSDelay = 900 * time.Second

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher serializes due jobs into JobMessages and sends them to the
// worker queue, using the SQS delay for sub-horizon precision.
type Publisher struct {
	client   SQSSender
	queueURL string
	clock    types.Clock
	logger   types.Logger
}

func NewPublisher(client SQSSender, queueURL string, clock types.Clock, logger types.Logger) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		clock:    clock,
		logger:   logger,
	}
}

// Publish compresses the job payload and sends the message, delaying
// delivery until the trigger instant where SQS permits.
func (p *Publisher) Publish(ctx context.Context, jobID string, job types.Job) error {
	payload, err := types.CompressPayload(job.Payload)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to compress job payload", err)
	}

	msg := types.JobMessage{
		JobID:     jobID,
		Group:     job.Group,
		Name:      job.Name,
		Kind:      job.Kind,
		Payload:   payload,
		TriggerAt: job.TriggerAt,
		TraceID:   uuid.New().String(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal job message", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(p.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: p.delaySeconds(job.TriggerAt),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(job.Kind)),
			},
		},
	}
	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamScheduler,
			fmt.Sprintf("failed to publish job to %s", p.queueURL), err)
	}

	p.logger.Info("job published",
		"job_id", jobID,
		"group", job.Group,
		"kind", string(job.Kind),
		"trace_id", msg.TraceID,
		"delay_seconds", input.DelaySeconds,
	)
	return nil
}

// delaySeconds computes the SQS delivery delay, clamped to [0, 900].
func (p *Publisher) delaySeconds(triggerAt time.Time) int32 {
	delay := triggerAt.Sub(p.clock.Now())
	if delay <= 0 {
		return 0
	}
	if delay > maxSQSDelay {
		delay = maxSQSDelay
	}
	return int32(delay / time.Second)
}
