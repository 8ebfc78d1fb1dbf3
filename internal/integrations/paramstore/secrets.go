package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Parameter names under the configured prefix.
const (
	paramChannelAccessToken = "channel-access-token"
	paramChannelSecret      = "channel-secret"
	paramCompletionAPIKey   = "open-ai-token"
)

// Secrets resolves the service's three secrets from SSM under a common
// prefix. Each value is fetched on first use and cached for the lifetime of
// the process; a fetch error is not cached, so a transient SSM failure is
// retried on the next invocation.
type Secrets struct {
	getter Getter
	prefix string

	mu    sync.Mutex
	cache map[string]string
}

// NewSecrets creates a Secrets bundle scoped to the given parameter prefix.
func NewSecrets(getter Getter, prefix string) (*Secrets, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("paramstore: parameter prefix must not be empty")
	}
	return &Secrets{getter: getter, prefix: prefix, cache: map[string]string{}}, nil
}

// ChannelAccessToken returns the messaging provider's long-lived channel
// access token used as the bearer credential for reply calls.
func (s *Secrets) ChannelAccessToken(ctx context.Context) (string, error) {
	return s.resolve(ctx, paramChannelAccessToken)
}

// ChannelSecret returns the channel secret used for webhook signature
// verification.
func (s *Secrets) ChannelSecret(ctx context.Context) (string, error) {
	return s.resolve(ctx, paramChannelSecret)
}

// CompletionAPIKey returns the completion provider's API key.
func (s *Secrets) CompletionAPIKey(ctx context.Context) (string, error) {
	return s.resolve(ctx, paramCompletionAPIKey)
}

func (s *Secrets) resolve(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache[name]; ok {
		return v, nil
	}
	v, err := s.getter.GetParameter(ctx, s.prefix+"/"+name)
	if err != nil {
		return "", fmt.Errorf("paramstore: resolve %s: %w", name, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("paramstore: parameter %s is empty", name)
	}
	s.cache[name] = v
	return v, nil
}
