// Package relay turns a price question into a single completion call and
// hands back the model's reply. It keeps no state between calls.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/template"
	"time"

	"github.com/amishk599/priceask/internal/ai"
	"github.com/amishk599/priceask/internal/model"
)

// placeholder is rendered for a field that is absent or JSON null.
const placeholder = "null"

// Request is the inbound question. Both fields are kept as raw JSON and are
// neither required nor type checked.
type Request struct {
	Message json.RawMessage `json:"message"`
	Prices  json.RawMessage `json:"prices"`
}

// NewRequest builds a Request from Go values, for callers that are not
// decoding an HTTP body.
func NewRequest(message string, prices any) (Request, error) {
	msg, err := json.Marshal(message)
	if err != nil {
		return Request{}, fmt.Errorf("marshal message: %w", err)
	}
	p, err := json.Marshal(prices)
	if err != nil {
		return Request{}, fmt.Errorf("marshal prices: %w", err)
	}
	return Request{Message: msg, Prices: p}, nil
}

// DecodeRequest parses a JSON request body. The body must be exactly one
// JSON object; anything else, trailing data included, is a
// *model.ClientError.
func DecodeRequest(body io.Reader) (Request, error) {
	dec := json.NewDecoder(body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return Request{}, &model.ClientError{Err: fmt.Errorf("decode request body: %w", err)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Request{}, &model.ClientError{Err: errors.New("decode request body: unexpected data after JSON value")}
	}
	if b := bytes.TrimSpace(raw); len(b) == 0 || b[0] != '{' {
		return Request{}, &model.ClientError{Err: errors.New("decode request body: expected a JSON object")}
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, &model.ClientError{Err: fmt.Errorf("decode request body: %w", err)}
	}
	return req, nil
}

// Relay composes the prompt and calls the completion provider.
type Relay struct {
	provider ai.Provider
	tmpl     *template.Template
	logger   *slog.Logger
}

// New creates a Relay. The provider is shared by all requests and must be
// safe for concurrent use.
func New(provider ai.Provider, tmpl *template.Template, logger *slog.Logger) *Relay {
	return &Relay{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Ask sends one question with its price block upstream and returns the text
// of the first reply. Errors are *model.ClientError or *model.UpstreamError.
func (r *Relay) Ask(ctx context.Context, req Request) (string, error) {
	prompt, err := r.BuildPrompt(req)
	if err != nil {
		return "", err
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: ai.SystemPrompt},
		{Role: ai.RoleUser, Content: prompt},
	}

	start := time.Now()
	reply, err := r.provider.Complete(ctx, messages)
	if err != nil {
		return "", &model.UpstreamError{Provider: r.provider.Name(), Err: err}
	}

	r.logger.Debug("completion finished",
		"provider", r.provider.Name(),
		"prompt_bytes", len(prompt),
		"reply_bytes", len(reply),
		"duration", time.Since(start),
	)
	return reply, nil
}

// BuildPrompt renders the user turn: the message, a blank line, the
// "Current power prices:" label and the prices block.
func (r *Relay) BuildPrompt(req Request) (string, error) {
	message, err := renderMessage(req.Message)
	if err != nil {
		return "", &model.ClientError{Err: fmt.Errorf("render message: %w", err)}
	}
	prices, err := renderValue(req.Prices)
	if err != nil {
		return "", &model.ClientError{Err: fmt.Errorf("render prices: %w", err)}
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, struct{ Message, Prices string }{
		Message: message,
		Prices:  prices,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// renderMessage embeds a JSON string verbatim and any other value as JSON text.
func renderMessage(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return renderValue(raw)
}

// renderValue returns the compact JSON text of raw, or the placeholder.
func renderValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return placeholder, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", err
	}
	return buf.String(), nil
}
