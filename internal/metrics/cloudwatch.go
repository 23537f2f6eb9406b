package metrics

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MELODY/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// metricPutter is the part of the CloudWatch client we use
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      metricPutter
	enabled     bool
	environment string
	async       bool
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		logger.Info("CloudWatch metrics disabled", logger.Fields{"environment": environment})
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("Failed to load AWS config for CloudWatch", logger.Fields{"error": err.Error()})
		return &Client{enabled: false}, nil
	}

	logger.Info("CloudWatch metrics enabled", logger.Fields{"namespace": namespace})

	return &Client{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
		async:       true,
	}, nil
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	m.send(func(ctx context.Context) {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{
				Name:  aws.String("Endpoint"),
				Value: aws.String(endpoint),
			},
			m.environmentDimension(),
		}

		m.putOrLog(ctx, metricName, 1, types.StandardUnitCount, dimensions)
		m.putOrLog(ctx, "APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	})
}

// RecordGeneration records generation duration and how many symbols were sampled
func (m *Client) RecordGeneration(_ context.Context, oracleName string, duration time.Duration, generatedSymbols int, success bool) {
	if !m.enabled {
		return
	}

	m.send(func(ctx context.Context) {
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Oracle"),
				Value: aws.String(oracleName),
			},
			{
				Name:  aws.String("Success"),
				Value: aws.String(boolToString(success)),
			},
			m.environmentDimension(),
		}

		m.putOrLog(ctx, "GenerationDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
		if success {
			m.putOrLog(ctx, "MelodyLength", float64(generatedSymbols), types.StandardUnitCount, dimensions)
		}
	})
}

func (m *Client) send(fn func(ctx context.Context)) {
	if m.async {
		go fn(context.Background())
		return
	}
	fn(context.Background())
}

func (m *Client) environmentDimension() types.Dimension {
	return types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	}
}

func (m *Client) putOrLog(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) {
	if err := m.putMetric(ctx, metricName, value, unit, dimensions); err != nil {
		logger.Warn("Failed to record CloudWatch metric", logger.Fields{"metric": metricName, "error": err.Error()})
	}
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	ctx context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
