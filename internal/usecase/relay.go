package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"line-gpt-relay/internal/domain"
)

const defaultHistoryLimit = 20

// HistoryStore is the conversation-ledger surface consumed by the relay.
type HistoryStore interface {
	Append(ctx context.Context, userID string, turn domain.Turn) error
	Recent(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}

// CompletionClient produces a reply for an ordered conversation history.
type CompletionClient interface {
	Chat(ctx context.Context, model string, turns []domain.Turn) (string, error)
}

// Replier delivers a text reply against a one-time reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// RelayService drains work-item batches: for each item it records the user
// turn, assembles recent history, asks the completion provider, records the
// assistant turn, and replies to the originating conversation.
type RelayService struct {
	history      HistoryStore
	llm          CompletionClient
	replier      Replier
	model        string
	historyLimit int
	logger       *slog.Logger
}

func NewRelayService(history HistoryStore, llm CompletionClient, replier Replier, model string, historyLimit int) (*RelayService, error) {
	if history == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if replier == nil {
		return nil, errors.New("usecase: replier must not be nil")
	}
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &RelayService{
		history:      history,
		llm:          llm,
		replier:      replier,
		model:        model,
		historyLimit: historyLimit,
		logger:       slog.Default(),
	}, nil
}

// Process handles one delivered batch, strictly sequentially. A failing item
// is logged and skipped; it never aborts the rest of the batch, and Process
// itself never reports failure, so redelivery stays with the queue
// infrastructure. Two batches for the same user may run concurrently with no
// mutual exclusion on the history partition; interleaved reads and writes
// are an accepted limitation of the key scheme.
func (s *RelayService) Process(ctx context.Context, items []domain.WorkItem) {
	for _, item := range items {
		if err := s.processItem(ctx, item); err != nil {
			var ucErr *Error
			code := ErrorInternal
			if errors.As(err, &ucErr) {
				code = ucErr.Code
			}
			s.logger.Error("work item failed", "user_id", item.UserID, "code", string(code), "err", err)
		}
	}
}

func (s *RelayService) processItem(ctx context.Context, item domain.WorkItem) error {
	// A failed user-turn write aborts the item: without it the completion
	// call would answer a history that is missing the current message.
	userTurn := domain.Turn{Role: domain.RoleUser, Content: item.Content}
	if err := s.history.Append(ctx, item.UserID, userTurn); err != nil {
		return newError(ErrorStore, "append_user_turn", err)
	}

	turns, err := s.history.Recent(ctx, item.UserID, s.historyLimit)
	if err != nil {
		return newError(ErrorStore, "read_history", err)
	}

	answer, err := s.llm.Chat(ctx, s.model, turns)
	if err != nil {
		return newError(ErrorUpstream, "completion_error", err)
	}
	if answer == "" {
		return newError(ErrorUpstream, "empty_completion", nil)
	}

	assistantTurn := domain.Turn{Role: domain.RoleAssistant, Content: answer}
	if err := s.history.Append(ctx, item.UserID, assistantTurn); err != nil {
		// The item is left partially applied: the user turn is stored but
		// no reply goes out, and the reply token expires unused.
		return newError(ErrorStore, "append_assistant_turn", err)
	}

	if err := s.replier.Reply(ctx, item.ReplyToken, answer); err != nil {
		return newError(ErrorUpstream, "reply_error", fmt.Errorf("reply for user %s: %w", item.UserID, err))
	}
	return nil
}
