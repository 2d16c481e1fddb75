package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-newsletter-signup/internal/domain"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

const topic = "arn:aws:sns:us-east-1:000000000000:newsletter-events"

func TestPublisher_Publish(t *testing.T) {
	api := &mockAPI{}
	var got *sns.PublishInput
	api.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)

	e := domain.Event{Type: domain.EventSubscriberCreated, Email: "a@example.com", At: "2024-05-01T10:00:00Z"}
	require.NoError(t, NewPublisher(api, topic).Publish(context.Background(), e))

	require.NotNil(t, got)
	assert.Equal(t, topic, aws.ToString(got.TopicArn))
	var decoded domain.Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(got.Message)), &decoded))
	assert.Equal(t, e, decoded)
	attr := got.MessageAttributes[eventTypeAttribute]
	assert.Equal(t, "String", aws.ToString(attr.DataType))
	assert.Equal(t, domain.EventSubscriberCreated, aws.ToString(attr.StringValue))
}

func TestPublisher_NoTopicIsNoop(t *testing.T) {
	api := &mockAPI{}
	require.NoError(t, NewPublisher(api, "").Publish(context.Background(), domain.Event{Type: "x"}))
	api.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	var nilPub *Publisher
	assert.NoError(t, nilPub.Publish(context.Background(), domain.Event{Type: "x"}))
}

func TestPublisher_WrapsError(t *testing.T) {
	api := &mockAPI{}
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("AuthorizationError"))

	err := NewPublisher(api, topic).Publish(context.Background(), domain.Event{Type: domain.EventSubscriberValidated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sns publish subscriber.validated")
}
