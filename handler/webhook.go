package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"line-gpt-relay/internal/domain"
	"line-gpt-relay/internal/integrations/line"
	"line-gpt-relay/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// IngestUseCase is the ingress operation behind the webhook endpoint.
type IngestUseCase interface {
	Ingest(ctx context.Context, req domain.WebhookRequest) (domain.WorkItem, error)
}

// SecretSource supplies the channel secret for signature verification.
// *paramstore.Secrets satisfies this interface.
type SecretSource interface {
	ChannelSecret(ctx context.Context) (string, error)
}

type ackResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Webhook adapts API Gateway proxy events to the ingest use case. It owns
// signature verification because only this layer sees the raw request body.
type Webhook struct {
	ingest             IngestUseCase
	secrets            SecretSource
	skipSignatureCheck bool
}

// NewWebhook creates the webhook handler. skipSignatureCheck exists for
// local testing against curl; it must stay off in any deployed environment.
func NewWebhook(ingest IngestUseCase, secrets SecretSource, skipSignatureCheck bool) (*Webhook, error) {
	if ingest == nil {
		return nil, errors.New("handler: ingest use case must not be nil")
	}
	if secrets == nil && !skipSignatureCheck {
		return nil, errors.New("handler: secret source must not be nil when signature checks are on")
	}
	return &Webhook{ingest: ingest, secrets: secrets, skipSignatureCheck: skipSignatureCheck}, nil
}

// Handle serves POST /api/webhook. Validation failures return 400, signature
// failures 401; the webhook caller only ever learns whether its event was
// accepted for processing, never how processing went.
func (h *Webhook) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)

	body, err := rawBody(req)
	if err != nil {
		slog.Error("failed to decode request body", "correlation_id", corrID, "err", err)
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidEvent)}, corrID), nil
	}

	if !h.skipSignatureCheck {
		secret, err := h.secrets.ChannelSecret(ctx)
		if err != nil {
			slog.Error("failed to resolve channel secret", "correlation_id", corrID, "err", err)
			return respond(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}, corrID), nil
		}
		if !line.ValidateSignature(secret, body, headerValue(req.Headers, line.SignatureHeader)) {
			slog.Warn("webhook signature mismatch", "correlation_id", corrID)
			return respond(http.StatusUnauthorized, errorResponse{Error: string(usecase.ErrorInvalidSignature)}, corrID), nil
		}
	}

	var webhookReq domain.WebhookRequest
	if err := json.Unmarshal(body, &webhookReq); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidEvent)}, corrID), nil
	}

	item, err := h.ingest.Ingest(ctx, webhookReq)
	if err != nil {
		status, code := statusForError(err)
		if status >= http.StatusInternalServerError {
			slog.Error("ingest failed", "correlation_id", corrID, "err", err)
		}
		return respond(status, errorResponse{Error: code}, corrID), nil
	}

	slog.Info("work item enqueued", "correlation_id", corrID, "user_id", item.UserID)
	return respond(http.StatusOK, ackResponse{Message: "ok"}, corrID), nil
}

// rawBody returns the request body bytes, honoring API Gateway's base64
// flag. Signature verification needs the exact bytes the provider signed.
func rawBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func statusForError(err error) (int, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, string(usecase.ErrorInternal)
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidEvent:
		return http.StatusBadRequest, string(ucErr.Code)
	case usecase.ErrorInvalidSignature:
		return http.StatusUnauthorized, string(ucErr.Code)
	default:
		return http.StatusInternalServerError, string(ucErr.Code)
	}
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		encoded = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(encoded),
	}
}

// correlationID echoes the caller's correlation header (any casing) or
// mints a fresh one.
func correlationID(headers map[string]string) string {
	if v := headerValue(headers, correlationHeader); v != "" {
		return v
	}
	return uuid.NewString()
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(name) {
			return v
		}
	}
	return ""
}
