package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/amishk599/priceask/internal/model"
)

// GeminiProvider calls Google's Generative Language API. System turns are
// sent as the model's system instruction; user turns become content parts.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider creates a Gemini client. An empty apiKey yields a
// provider whose every call fails with model.ErrMissingAPIKey.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, temperature float64) (*GeminiProvider, error) {
	p := &GeminiProvider{model: modelName, temperature: float32(temperature)}
	if apiKey == "" {
		return p, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Close releases the underlying client connection.
func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Complete sends messages to Gemini and returns the text of the first candidate.
func (p *GeminiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	if p.client == nil {
		return "", model.ErrMissingAPIKey
	}

	system, parts := splitTurns(messages)

	// GenerativeModel is a lightweight value; one per call keeps the shared
	// client free of per-request mutation.
	gm := p.client.GenerativeModel(p.model)
	gm.SetTemperature(p.temperature)
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// splitTurns joins system turns into one instruction and converts the
// remaining turns to text parts, in order.
func splitTurns(messages []Message) (string, []genai.Part) {
	var system []string
	var parts []genai.Part
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	return strings.Join(system, "\n"), parts
}
