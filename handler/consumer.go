package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"line-gpt-relay/internal/domain"
)

// RelayUseCase is the batch-processing operation behind the queue consumer.
type RelayUseCase interface {
	Process(ctx context.Context, items []domain.WorkItem)
}

// Consumer adapts SQS events to the relay use case.
type Consumer struct {
	relay RelayUseCase
}

// NewConsumer creates the queue consumer handler.
func NewConsumer(relay RelayUseCase) (*Consumer, error) {
	if relay == nil {
		return nil, errors.New("handler: relay use case must not be nil")
	}
	return &Consumer{relay: relay}, nil
}

// Handle drains one delivered batch. Records whose bodies fail to decode are
// logged and dropped; redelivering them would fail identically. Handle never
// returns an error, so the queue's visibility timeout and redrive policy are
// the only retry machinery in play.
func (c *Consumer) Handle(ctx context.Context, event events.SQSEvent) error {
	items := make([]domain.WorkItem, 0, len(event.Records))
	for _, record := range event.Records {
		var item domain.WorkItem
		if err := json.Unmarshal([]byte(record.Body), &item); err != nil {
			slog.Error("dropping undecodable queue record", "message_id", record.MessageId, "err", err)
			continue
		}
		if item.UserID == "" || item.ReplyToken == "" {
			slog.Error("dropping incomplete work item", "message_id", record.MessageId)
			continue
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		c.relay.Process(ctx, items)
	}
	return nil
}
