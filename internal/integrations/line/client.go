package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// textMessage is the outbound message shape for the reply endpoint.
type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// replyRequest is the request shape for the reply endpoint.
type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// TokenSource supplies the channel access token used as the bearer
// credential. *paramstore.Secrets satisfies this interface.
type TokenSource interface {
	ChannelAccessToken(ctx context.Context) (string, error)
}

// HTTPStatusError captures non-2xx responses from the messaging provider.
// An expired or already-consumed reply token surfaces here as a 400.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("line: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client posts replies to the messaging provider's reply endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new reply Client.
func NewClient(tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("line: token source must not be nil")
	}
	c := &Client{
		baseURL:    "https://api.line.me",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func replyURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.line.me"
	}
	return base + "/v2/bot/message/reply"
}

// Reply sends a single text message back to the conversation identified by
// the reply token. The token is valid once and only for a short window after
// the originating event; no retry is attempted here because a redelivered
// token is rejected upstream anyway.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line: reply token must not be empty")
	}
	if text == "" {
		return errors.New("line: reply text must not be empty")
	}

	accessToken, err := c.tokens.ChannelAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("line: resolve channel access token: %w", err)
	}

	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("line: marshal reply: %w", err)
	}

	url := replyURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return fmt.Errorf("line: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	res, doErr := httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf("line: reply request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}
	return nil
}
