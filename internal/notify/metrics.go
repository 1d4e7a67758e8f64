package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"appealnotify/internal/types"
)

// NotificationMetrics records dispatch outcomes for operational dashboards.
// Recording is best-effort: a metrics failure never affects dispatch.
type NotificationMetrics interface {
	RecordDispatch(ctx context.Context, channel types.Channel, result types.DispatchResult)
	RecordJobScheduled(ctx context.Context, event string)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics emits notification engine metrics to AWS CloudWatch.
//
// Metrics emitted:
//   - NotificationDispatch: Dims {Channel, Result} -- on every channel outcome
//   - JobScheduled: Dims {Event} -- on every deferred or reminder job write
var _ NotificationMetrics = (*CloudWatchMetrics)(nil)

type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to the given
// namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordDispatch emits a NotificationDispatch metric with Channel and Result
// dimensions.
func (m *CloudWatchMetrics) RecordDispatch(ctx context.Context, channel types.Channel, result types.DispatchResult) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricDispatch),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(types.DimChannel),
						Value: aws.String(string(channel)),
					},
					{
						Name:  aws.String(types.DimResult),
						Value: aws.String(string(result)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record dispatch metric",
			"error", err.Error(),
			"channel", string(channel),
			"result", string(result),
		)
	}
}

// RecordJobScheduled emits a JobScheduled metric with the Event dimension.
func (m *CloudWatchMetrics) RecordJobScheduled(ctx context.Context, event string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricJobScheduled),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(types.DimEvent),
						Value: aws.String(event),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record job scheduled metric",
			"error", err.Error(),
			"event", event,
		)
	}
}

// NoopMetrics discards all metrics. Used in local mode and tests.
type NoopMetrics struct{}

var _ NotificationMetrics = (*NoopMetrics)(nil)

func (NoopMetrics) RecordDispatch(context.Context, types.Channel, types.DispatchResult) {}
func (NoopMetrics) RecordJobScheduled(context.Context, string)                          {}
