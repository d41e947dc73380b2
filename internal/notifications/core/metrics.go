package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricNamespace is the CloudWatch namespace for all delivery metrics.
const MetricNamespace = "BookWorkflow/Notifications"

// Metric and dimension names.
const (
	metricEventPublish   = "EventPublish"
	metricPublishRetries = "EventPublishRetries"
	metricBatchRecords   = "BatchRecords"
	metricStaleEventAge  = "StaleEventAge"

	dimResult  = "Result"
	dimOutcome = "Outcome"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchDeliveryMetrics implements DeliveryMetrics against AWS
// CloudWatch. Emission failures are logged and swallowed: observability must
// never fail the core operation.
type CloudWatchDeliveryMetrics struct {
	client CloudWatchClient
	logger *slog.Logger
}

// NewCloudWatchDeliveryMetrics creates a metrics sink publishing to
// MetricNamespace.
func NewCloudWatchDeliveryMetrics(client CloudWatchClient, logger *slog.Logger) *CloudWatchDeliveryMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchDeliveryMetrics{client: client, logger: logger}
}

// RecordPublishOutcome emits one EventPublish datum per terminal publish
// outcome plus the number of retries the attempt loop consumed.
func (m *CloudWatchDeliveryMetrics) RecordPublishOutcome(ctx context.Context, result MetricResult, retries int) {
	m.put(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(MetricNamespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricEventPublish),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimResult), Value: aws.String(string(result))},
				},
			},
			{
				MetricName: aws.String(metricPublishRetries),
				Value:      aws.Float64(float64(retries)),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
}

// RecordBatch emits the aggregate outcome counts for one processed batch.
func (m *CloudWatchDeliveryMetrics) RecordBatch(ctx context.Context, res BatchResult) {
	datum := func(outcome string, value int) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(metricBatchRecords),
			Value:      aws.Float64(float64(value)),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(dimOutcome), Value: aws.String(outcome)},
			},
		}
	}

	m.put(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(MetricNamespace),
		MetricData: []cwtypes.MetricDatum{
			datum("total", res.TotalRecords),
			datum("succeeded", res.Succeeded),
			datum("failed", res.Failed),
			datum("retrying", len(res.RetryIdentifiers)),
		},
	})
}

// RecordStaleEvent emits the observed age of an event flagged as stale.
func (m *CloudWatchDeliveryMetrics) RecordStaleEvent(ctx context.Context, age time.Duration) {
	m.put(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(MetricNamespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricStaleEventAge),
				Value:      aws.Float64(float64(age.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
			},
		},
	})
}

func (m *CloudWatchDeliveryMetrics) put(ctx context.Context, input *cloudwatch.PutMetricDataInput) {
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to emit metrics", "error", err.Error())
	}
}

// NoopMetrics is a DeliveryMetrics that discards everything. Used in local
// mode and tests.
type NoopMetrics struct{}

func (NoopMetrics) RecordPublishOutcome(context.Context, MetricResult, int) {}
func (NoopMetrics) RecordBatch(context.Context, BatchResult)               {}
func (NoopMetrics) RecordStaleEvent(context.Context, time.Duration)        {}

// Compile-time interface assertions.
var (
	_ DeliveryMetrics = (*CloudWatchDeliveryMetrics)(nil)
	_ DeliveryMetrics = NoopMetrics{}
)
