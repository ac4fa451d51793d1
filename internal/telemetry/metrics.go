// Package telemetry publishes per-run collector metrics to CloudWatch.
// Publishing is best-effort: a metrics outage never fails a collection
// run, it only produces a warning.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted per collection run.
const (
	MetricGeometriesDiscovered    = "GeometriesDiscovered"
	MetricGeometriesWithResults   = "GeometriesWithResults"
	MetricGeometriesWithoutResult = "GeometriesWithoutResults"
	MetricRunDuration             = "RunDuration"
)

// DimSimulator is the dimension carrying the simulator filter a run was
// scoped to ("all" when unfiltered).
const DimSimulator = "Simulator"

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// RunMetrics describes one finished collection run.
type RunMetrics struct {
	Discovered     int
	WithResults    int
	WithoutResults int
	Duration       time.Duration

	// Simulator is the simulator filter the run was scoped to; empty
	// means the run covered all simulators.
	Simulator string
}

// Publisher emits run metrics to a CloudWatch namespace.
type Publisher struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewPublisher creates a Publisher for the given namespace. A nil logger
// falls back to slog.Default().
func NewPublisher(client CloudWatchClient, namespace string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// PublishRun emits the run counters and duration in a single
// PutMetricData call. Failures are logged and swallowed.
func (p *Publisher) PublishRun(ctx context.Context, m RunMetrics) {
	simulator := m.Simulator
	if simulator == "" {
		simulator = "all"
	}
	dims := []cwtypes.Dimension{
		{
			Name:  aws.String(DimSimulator),
			Value: aws.String(simulator),
		},
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricGeometriesDiscovered),
				Value:      aws.Float64(float64(m.Discovered)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(MetricGeometriesWithResults),
				Value:      aws.Float64(float64(m.WithResults)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(MetricGeometriesWithoutResult),
				Value:      aws.Float64(float64(m.WithoutResults)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(MetricRunDuration),
				Value:      aws.Float64(float64(m.Duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: dims,
			},
		},
	}

	if _, err := p.client.PutMetricData(ctx, input); err != nil {
		p.logger.WarnContext(ctx, "failed to publish run metrics",
			"error", err, "namespace", p.namespace)
	}
}
