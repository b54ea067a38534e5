package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"

	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	"github.com/ca-srg/saferestart/infrastructure/config"
)

// CloudWatchMetricsRepository implements MetricsRepository with CloudWatch PutMetricData
type CloudWatchMetricsRepository struct {
	client    cloudwatchiface.CloudWatchAPI
	namespace string
	hostLabel string
}

// NewCloudWatchMetricsRepository creates a CloudWatch metrics repository
func NewCloudWatchMetricsRepository(cfg *config.CloudWatchConfig, hostLabel string) (repository.MetricsRepository, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, repository.NewMetricsRepositoryError("initialize", fmt.Errorf("cloudwatch is not enabled"))
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Profile:           cfg.AWSProfile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, repository.NewMetricsRepositoryError("initialize", fmt.Errorf("failed to create AWS session: %w", err))
	}

	client := cloudwatch.New(sess, &aws.Config{Region: aws.String(cfg.Region)})
	return newCloudWatchMetricsRepository(client, cfg.Namespace, resolveHostLabel(hostLabel)), nil
}

func newCloudWatchMetricsRepository(client cloudwatchiface.CloudWatchAPI, namespace, hostLabel string) *CloudWatchMetricsRepository {
	return &CloudWatchMetricsRepository{
		client:    client,
		namespace: namespace,
		hostLabel: hostLabel,
	}
}

// SendRunMetrics publishes one datum per run gauge
func (r *CloudWatchMetricsRepository) SendRunMetrics(ctx context.Context, record *entity.RunRecord) error {
	if record == nil {
		return repository.NewMetricsRepositoryError("send", fmt.Errorf("run record is nil"))
	}

	host := &cloudwatch.Dimension{Name: aws.String("Host"), Value: aws.String(r.hostLabel)}
	outcome := &cloudwatch.Dimension{Name: aws.String("Outcome"), Value: aws.String(string(record.Outcome))}
	ts := aws.Time(record.FinishedAt)

	datum := func(name string, value float64, unit string, dims ...*cloudwatch.Dimension) *cloudwatch.MetricDatum {
		return &cloudwatch.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       aws.String(unit),
			Timestamp:  ts,
			Dimensions: dims,
		}
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(r.namespace),
		MetricData: []*cloudwatch.MetricDatum{
			datum("RunOutcome", 1, cloudwatch.StandardUnitCount, host, outcome),
			datum("RunExitStatus", float64(record.ExitStatus), cloudwatch.StandardUnitNone, host),
			datum("RunDuration", record.Duration().Seconds(), cloudwatch.StandardUnitSeconds, host, outcome),
			datum("ClosedResources", float64(record.ClosedCount), cloudwatch.StandardUnitCount, host),
			datum("CloseFailures", float64(record.Failures), cloudwatch.StandardUnitCount, host),
		},
	}

	if _, err := r.client.PutMetricDataWithContext(ctx, input); err != nil {
		return repository.NewMetricsRepositoryError("send", fmt.Errorf("cloudwatch put metric data: %w", err))
	}
	return nil
}

// Close cleans up resources
func (r *CloudWatchMetricsRepository) Close() error {
	return nil
}
