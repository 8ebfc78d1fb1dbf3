package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	vals  map[string]string
	err   error
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[name]
	if !ok {
		return "", errors.New("param not found: " + name)
	}
	return v, nil
}

func defaultGetter() *fakeGetter {
	return &fakeGetter{vals: map[string]string{
		"/line-gpt-relay/channel-access-token": "channel-token",
		"/line-gpt-relay/channel-secret":       "channel-secret",
		"/line-gpt-relay/open-ai-token":        "sk-test",
	}}
}

func TestSecrets_ResolvesEachParameter(t *testing.T) {
	s, err := NewSecrets(defaultGetter(), "/line-gpt-relay")
	require.NoError(t, err)

	tok, err := s.ChannelAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "channel-token", tok)

	sec, err := s.ChannelSecret(context.Background())
	require.NoError(t, err)
	require.Equal(t, "channel-secret", sec)

	key, err := s.CompletionAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-test", key)
}

func TestSecrets_TrimsTrailingSlashFromPrefix(t *testing.T) {
	s, err := NewSecrets(defaultGetter(), "/line-gpt-relay/")
	require.NoError(t, err)
	_, err = s.ChannelSecret(context.Background())
	require.NoError(t, err)
}

func TestSecrets_CachesAfterFirstFetch(t *testing.T) {
	g := defaultGetter()
	s, err := NewSecrets(g, "/line-gpt-relay")
	require.NoError(t, err)

	_, err = s.CompletionAPIKey(context.Background())
	require.NoError(t, err)
	_, err = s.CompletionAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, g.calls, "SSM must only be hit once per parameter")
}

func TestSecrets_ErrorIsNotCached(t *testing.T) {
	g := defaultGetter()
	g.err = errors.New("ssm unavailable")
	s, err := NewSecrets(g, "/line-gpt-relay")
	require.NoError(t, err)

	_, err = s.ChannelSecret(context.Background())
	require.Error(t, err)

	g.err = nil
	v, err := s.ChannelSecret(context.Background())
	require.NoError(t, err)
	require.Equal(t, "channel-secret", v)
}

func TestSecrets_EmptyValue(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{"/line-gpt-relay/channel-secret": "  "}}
	s, err := NewSecrets(g, "/line-gpt-relay")
	require.NoError(t, err)
	_, err = s.ChannelSecret(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestNewSecrets_Validation(t *testing.T) {
	_, err := NewSecrets(nil, "/line-gpt-relay")
	require.Error(t, err)

	_, err = NewSecrets(defaultGetter(), " ")
	require.Error(t, err)
}
