package domain

// Turn roles. The completion provider only ever returns assistant turns;
// system turns may appear in stored history but are never written by this
// service.
const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
)

// Turn is a single message in a user's rolling conversation history. This is
// both the stored shape and the wire shape sent to the completion provider.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WorkItem is one queued user message awaiting completion-and-reply
// processing. The reply token is a single-use capability issued by the
// messaging provider and expires shortly after the originating event.
type WorkItem struct {
	UserID     string `json:"userId"`
	Content    string `json:"content"`
	ReplyToken string `json:"replyToken"`
}
