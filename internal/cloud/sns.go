package cloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes underperformance alerts to an SNS topic.
type SNSClient struct {
	svc      snsAPI
	topicArn string
}

func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &SNSClient{svc: sns.NewFromConfig(cfg), topicArn: topicArn}, nil
}

// Notify implements alerting.Notifier. Subscribers can filter on the
// severity and site_id message attributes.
func (c *SNSClient) Notify(ctx context.Context, a domain.Alert) error {
	subject := fmt.Sprintf("[%s] Solar site %d underperforming", a.Severity, a.SiteID)
	message := fmt.Sprintf("%s\n\nSeverity: %s\nCategory: %s\nRaised: %s\nAlert ID: %s",
		a.Message, a.Severity, a.Category, a.CreatedAt.Format("2006-01-02 15:04:05 MST"), a.ID)

	_, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"severity": {DataType: aws.String("String"), StringValue: aws.String(string(a.Severity))},
			"site_id":  {DataType: aws.String("Number"), StringValue: aws.String(strconv.FormatInt(a.SiteID, 10))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	return nil
}
