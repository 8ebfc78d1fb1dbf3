package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"line-gpt-relay/internal/domain"
)

const (
	pkPrefix    = "USER#"
	ttlDuration = 6 * time.Hour // rolling history retention window
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// HistoryStore defines the conversation-history operations consumed by the
// relay service.
type HistoryStore interface {
	Append(ctx context.Context, userID string, turn domain.Turn) error
	Recent(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}

// Client wraps a DynamoDB table holding per-user conversation turns. One item
// per turn, partitioned by user, sorted by a millisecond timestamp, purged by
// the table's TTL attribute after six hours.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new history Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// userPK returns the DynamoDB partition key for a user's history.
func userPK(userID string) string {
	return pkPrefix + userID
}

// Append writes a new turn under a fresh timestamp sort key and stamps the
// TTL attribute so the entry expires after the retention window. No
// uniqueness enforcement: two writes within the same millisecond overwrite
// each other, which the key scheme accepts.
func (c *Client) Append(ctx context.Context, userID string, turn domain.Turn) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("repository: Append: userID must not be empty")
	}
	if turn.Role == "" || turn.Content == "" {
		return errors.New("repository: Append: turn role and content are required")
	}

	now := c.now()
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":      &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK":      &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
			"role":    &types.AttributeValueMemberS{Value: turn.Role},
			"content": &types.AttributeValueMemberS{Value: turn.Content},
			"ttl":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(ttlDuration).Unix(), 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// Recent returns up to limit of the user's most recent turns in chronological
// order, oldest first. Items that fail to decode are skipped rather than
// failing the read; expired items not yet purged by DynamoDB are filtered by
// the query the same as live ones, which is acceptable for a rolling window.
func (c *Client) Recent(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("repository: Recent: limit must be positive, got %d", limit)
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userPK(userID)},
		},
		// Read newest first so Limit keeps the most recent context.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: Recent query: %w", err)
	}

	type keyed struct {
		ts   int64
		turn domain.Turn
	}
	entries := make([]keyed, 0, len(out.Items))
	for _, item := range out.Items {
		ts, turn, err := itemToTurn(item)
		if err != nil {
			slog.Warn("skipping undecodable history item", "user_id", userID, "err", err)
			continue
		}
		entries = append(entries, keyed{ts: ts, turn: turn})
	}

	// DynamoDB already orders by SK, but sort explicitly on the timestamp
	// key so chronological order never depends on enumeration order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })

	turns := make([]domain.Turn, 0, len(entries))
	for _, e := range entries {
		turns = append(turns, e.turn)
	}
	return turns, nil
}

// itemToTurn converts a DynamoDB attribute map to a timestamped Turn.
func itemToTurn(item map[string]types.AttributeValue) (int64, domain.Turn, error) {
	ts, err := numAttr(item, "SK")
	if err != nil {
		return 0, domain.Turn{}, err
	}
	role, err := strAttr(item, "role")
	if err != nil {
		return 0, domain.Turn{}, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return 0, domain.Turn{}, err
	}
	return ts, domain.Turn{Role: role, Content: content}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func numAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
