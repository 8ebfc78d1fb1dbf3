package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"line-gpt-relay/internal/domain"
)

// sqsAPI is the minimal SQS interface required by Client.
// Defined here for testability.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher defines the enqueue operation consumed by the ingress handler.
type Publisher interface {
	Send(ctx context.Context, item domain.WorkItem) error
}

// Client publishes work items to an SQS queue. Delivery is at-least-once;
// deduplication is not attempted anywhere downstream.
type Client struct {
	api      sqsAPI
	queueURL string
}

// New creates a new queue Client.
func New(api sqsAPI, queueURL string) (*Client, error) {
	if api == nil {
		return nil, errors.New("queue: api must not be nil")
	}
	if strings.TrimSpace(queueURL) == "" {
		return nil, errors.New("queue: queue URL must not be empty")
	}
	return &Client{api: api, queueURL: queueURL}, nil
}

// Send enqueues one work item as a JSON message body.
func (c *Client) Send(ctx context.Context, item domain.WorkItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("queue: marshal work item: %w", err)
	}

	_, err = c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("queue: send message: %w", err)
	}
	return nil
}
