package ai

import "context"

// Message is one conversational turn sent to a completion service.
type Message struct {
	Role    string
	Content string
}

// Role names shared by every provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Provider sends a conversation to an LLM and returns the text of the first
// reply. Model and sampling temperature are fixed when the provider is built.
// Implementations are safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}
