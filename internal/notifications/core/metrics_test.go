package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// mockCloudWatch records PutMetricData inputs and returns the configured error.
type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, m.err
}

func TestRecordPublishOutcome(t *testing.T) {
	client := &mockCloudWatch{}
	m := NewCloudWatchDeliveryMetrics(client, nil)

	m.RecordPublishOutcome(context.Background(), MetricSuccess, 2)

	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", len(client.inputs))
	}
	input := client.inputs[0]
	if aws.ToString(input.Namespace) != MetricNamespace {
		t.Errorf("namespace = %q, want %q", aws.ToString(input.Namespace), MetricNamespace)
	}
	if len(input.MetricData) != 2 {
		t.Fatalf("expected publish + retries data, got %d", len(input.MetricData))
	}
	if got := aws.ToString(input.MetricData[0].Dimensions[0].Value); got != string(MetricSuccess) {
		t.Errorf("result dimension = %q", got)
	}
	if got := aws.ToFloat64(input.MetricData[1].Value); got != 2 {
		t.Errorf("retries value = %v, want 2", got)
	}
}

func TestRecordBatch(t *testing.T) {
	client := &mockCloudWatch{}
	m := NewCloudWatchDeliveryMetrics(client, nil)

	m.RecordBatch(context.Background(), BatchResult{
		TotalRecords:     5,
		Succeeded:        3,
		Failed:           2,
		RetryIdentifiers: []string{"m-1"},
	})

	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", len(client.inputs))
	}
	data := client.inputs[0].MetricData
	if len(data) != 4 {
		t.Fatalf("expected 4 outcome data, got %d", len(data))
	}

	want := map[string]float64{"total": 5, "succeeded": 3, "failed": 2, "retrying": 1}
	for _, d := range data {
		outcome := aws.ToString(d.Dimensions[0].Value)
		if v, ok := want[outcome]; !ok || aws.ToFloat64(d.Value) != v {
			t.Errorf("outcome %q = %v, want %v", outcome, aws.ToFloat64(d.Value), want[outcome])
		}
	}
}

func TestMetricsEmissionFailureSwallowed(t *testing.T) {
	client := &mockCloudWatch{err: errors.New("cloudwatch unavailable")}
	m := NewCloudWatchDeliveryMetrics(client, nil)

	// Must not panic or propagate.
	m.RecordPublishOutcome(context.Background(), MetricFailed, 0)
	m.RecordStaleEvent(context.Background(), 2*time.Hour)
}
