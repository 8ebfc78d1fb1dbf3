package domain

// Webhook event kinds accepted by the ingress handler. Anything else is
// rejected with a validation error.
const (
	EventTypeMessage = "message"
	MessageTypeText  = "text"
	SourceTypeUser   = "user"
)

// WebhookRequest is the messaging provider's webhook envelope.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single webhook event. Only text-message events from a user
// source are processed; group and room sources carry no stable userId for
// history partitioning.
type Event struct {
	Type       string       `json:"type"`
	ReplyToken string       `json:"replyToken"`
	Timestamp  int64        `json:"timestamp"`
	Source     Source       `json:"source"`
	Message    EventMessage `json:"message"`
}

// Source identifies where an event originated.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// EventMessage is the message body attached to a message-type event.
type EventMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}
