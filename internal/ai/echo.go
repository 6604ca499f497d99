package ai

import "context"

// EchoProvider is an offline provider used when ai.provider is "echo".
// It answers with the content of the last user turn, unchanged.
type EchoProvider struct{}

// NewEchoProvider returns an EchoProvider.
func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

// Complete returns the last user message.
func (EchoProvider) Complete(_ context.Context, messages []Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, nil
		}
	}
	return "", nil
}

func (EchoProvider) Name() string { return "echo" }
