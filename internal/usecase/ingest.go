package usecase

import (
	"context"
	"errors"
	"strings"

	"line-gpt-relay/internal/domain"
)

// Enqueuer is the queue operation consumed by the ingest service.
type Enqueuer interface {
	Send(ctx context.Context, item domain.WorkItem) error
}

// IngestService validates inbound webhook events and enqueues work items.
// It performs no provider calls itself; everything slow happens in the
// queue consumer.
type IngestService struct {
	queue Enqueuer
}

func NewIngestService(queue Enqueuer) (*IngestService, error) {
	if queue == nil {
		return nil, errors.New("usecase: enqueuer must not be nil")
	}
	return &IngestService{queue: queue}, nil
}

// Ingest processes only the first event of the webhook payload. A valid
// event is a text message from a user source; anything else is rejected
// without enqueueing. Exactly one enqueue happens per valid request.
func (s *IngestService) Ingest(ctx context.Context, req domain.WebhookRequest) (domain.WorkItem, error) {
	if len(req.Events) == 0 {
		return domain.WorkItem{}, newError(ErrorInvalidEvent, "no_events", nil)
	}

	event := req.Events[0]
	if event.Type != domain.EventTypeMessage {
		return domain.WorkItem{}, newError(ErrorInvalidEvent, "not_a_message_event", nil)
	}
	if event.Message.Type != domain.MessageTypeText {
		return domain.WorkItem{}, newError(ErrorInvalidEvent, "not_a_text_message", nil)
	}
	if event.Source.Type != domain.SourceTypeUser {
		return domain.WorkItem{}, newError(ErrorInvalidEvent, "not_a_user_source", nil)
	}
	if strings.TrimSpace(event.Source.UserID) == "" {
		return domain.WorkItem{}, newError(ErrorInvalidEvent, "missing_user_id", nil)
	}

	item := domain.WorkItem{
		UserID:     event.Source.UserID,
		Content:    event.Message.Text,
		ReplyToken: event.ReplyToken,
	}
	if err := s.queue.Send(ctx, item); err != nil {
		return domain.WorkItem{}, newError(ErrorInternal, "enqueue_error", err)
	}
	return item, nil
}
