package entity

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry of the append-only chat log. Turns are never
// edited or removed individually, only cleared together when a new snapshot
// pair is loaded.
type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
