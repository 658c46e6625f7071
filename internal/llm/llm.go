package llm

import "context"

// Chat roles understood by the completion provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a conversation message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Client defines the interface for completion providers.
type Client interface {
	// Complete sends the messages in order and returns the generated text.
	Complete(ctx context.Context, messages []Message) (string, error)
}
