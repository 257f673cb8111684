// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the subset of the SNS client used here, mockable in tests.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Event is a domain event envelope.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// EventPublisher sends domain events to one SNS topic. The event type is also set as the
// eventType message attribute so subscribers can filter on it.
type EventPublisher struct {
	client   SNSService
	topicARN string
	now      func() time.Time
}

func NewEventPublisher(client SNSService, topicARN string) *EventPublisher {
	return &EventPublisher{client: client, topicARN: topicARN, now: time.Now}
}

// NewSNSEventPublisher loads the default AWS credential chain for region.
func NewSNSEventPublisher(ctx context.Context, region, topicARN string) (*EventPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewEventPublisher(sns.NewFromConfig(cfg), topicARN), nil
}

// Publish returns the SNS message ID.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, data interface{}) (string, error) {
	body, err := json.Marshal(Event{
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return aws.ToString(out.MessageId), nil
}
