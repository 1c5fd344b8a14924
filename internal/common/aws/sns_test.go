package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"deal-workers/internal/common/errors"
	"deal-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func TestSNSClient_PublishDealEvent(t *testing.T) {
	api := new(MockSNS)
	client := NewSNSClientWithAPI(api, "arn:aws:sns:us-east-1:123456789012:deal-events")

	var sent *sns.PublishInput
	api.On("Publish", mock.Anything, mock.AnythingOfType("*sns.PublishInput")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{}, nil)

	event := models.DealEvent{
		Type:          models.DealEventConverted,
		DealID:        "set-1",
		OwnerID:       "seller-a",
		DealNumber:    3,
		PaymentAmount: 800,
		OccurredAt:    time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, client.PublishDealEvent(context.Background(), event))

	require.NotNil(t, sent)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:deal-events", *sent.TopicArn)
	assert.Equal(t, "deal.converted", *sent.MessageAttributes["eventType"].StringValue)
	assert.Equal(t, "set-1", *sent.MessageAttributes["dealId"].StringValue)

	var decoded models.DealEvent
	require.NoError(t, json.Unmarshal([]byte(*sent.Message), &decoded))
	assert.NotEmpty(t, decoded.EventID)
	assert.Equal(t, 3, decoded.DealNumber)
	assert.Equal(t, 800.0, decoded.PaymentAmount)
}

func TestSNSClient_PublishFailure(t *testing.T) {
	api := new(MockSNS)
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("throttled"))
	client := NewSNSClientWithAPI(api, "arn:topic")

	err := client.PublishDealEvent(context.Background(), models.DealEvent{Type: models.DealEventCancelled, DealID: "p-1"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeEventPublishFailed))
	stdErr, _ := errors.AsStandard(err)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "deal.cancelled")
}

func TestNewSNSClient_RequiresTopic(t *testing.T) {
	_, err := NewSNSClient(context.Background(), "us-east-1", "")
	assert.Error(t, err)
}
