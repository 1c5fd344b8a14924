// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"deal-workers/internal/common/errors"
	"deal-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// SNSAPI is the slice of the SNS client the publisher uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes deal events to one topic.
type SNSClient struct {
	client   SNSAPI
	topicARN string
}

// NewSNSClient loads the default AWS credential chain for region.
func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("sns: topic ARN is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// NewSNSClientWithAPI wraps an existing client, typically a fake in tests.
func NewSNSClientWithAPI(api SNSAPI, topicARN string) *SNSClient {
	return &SNSClient{client: api, topicARN: topicARN}
}

// PublishDealEvent sends event as JSON. The event type and deal ID travel as
// message attributes so subscribers can filter without decoding the body.
func (s *SNSClient) PublishDealEvent(ctx context.Context, event models.DealEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.NewEventPublishFailedError(string(event.Type), err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(string(event.Type))},
			"dealId":    {DataType: aws.String("String"), StringValue: aws.String(event.DealID)},
		},
	})
	if err != nil {
		return errors.NewEventPublishFailedError(string(event.Type), err)
	}
	return nil
}
