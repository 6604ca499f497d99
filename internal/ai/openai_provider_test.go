package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

var testMessages = []Message{
	{Role: RoleSystem, Content: SystemPrompt},
	{Role: RoleUser, Content: "What is the price at 14:00?"},
}

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func replyWith(content string) chatResponse {
	return chatResponse{Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}}}
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, replyWith("0.23 NOK/kWh"))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, client)
	got, err := provider.Complete(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0.23 NOK/kWh" {
		t.Errorf("got %q, want %q", got, "0.23 NOK/kWh")
	}
}

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	resp := chatResponse{Choices: []chatChoice{
		{Message: chatMessage{Content: "first"}},
		{Message: chatMessage{Content: "second"}},
	}}
	srv, client := makeTestServer(t, http.StatusOK, resp)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, client)
	got, err := provider.Complete(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first" {
		t.Errorf("got %q, want first", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, client)
	_, err := provider.Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatal("expected error on 5xx response")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected HTTPError 500, got %v", err)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, srv.Client())
	_, err := provider.Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatal("expected error on 429 response")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
	if httpErr.Err.Error() != "Rate limit reached" {
		t.Errorf("message = %q, want upstream message", httpErr.Err.Error())
	}
}

func TestComplete_Unauthorized(t *testing.T) {
	body := chatResponse{Error: &apiError{Message: "Incorrect API key provided", Type: "invalid_request_error"}}
	srv, client := makeTestServer(t, http.StatusUnauthorized, body)

	provider := NewOpenAIProvider(srv.URL, "bad-key", "test-model", 0.2, client)
	_, err := provider.Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{Choices: nil})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, client)
	_, err := provider.Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_ErrorObjectInBody(t *testing.T) {
	body := chatResponse{Error: &apiError{Message: "model overloaded", Type: "server_error"}}
	srv, client := makeTestServer(t, http.StatusOK, body)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, client)
	_, err := provider.Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatal("expected error when body carries an error object")
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0.2, srv.Client())
	_, err := provider.Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatal("expected error on malformed response")
	}
}

func TestComplete_MissingAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "", "test-model", 0.2, srv.Client())
	_, err := provider.Complete(context.Background(), testMessages)
	if !errors.Is(err, model.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if called {
		t.Error("expected no request without an API key")
	}
}

func TestComplete_SetsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(replyWith("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", "test-model", 0.2, srv.Client())
	_, _ = provider.Complete(context.Background(), testMessages)

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
}

func TestComplete_SendsModelMessagesAndTemperature(t *testing.T) {
	var gotReq chatRequest
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(replyWith("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "key", "gpt-4o-mini", 0.2, srv.Client())
	_, _ = provider.Complete(context.Background(), testMessages)

	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gotReq.Model)
	}
	if gotReq.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages len = %d, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != RoleSystem || gotReq.Messages[0].Content != SystemPrompt {
		t.Errorf("messages[0] = %+v, want system prompt", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != RoleUser {
		t.Errorf("messages[1].role = %q, want user", gotReq.Messages[1].Role)
	}
}

func TestEchoProvider_ReturnsLastUserTurn(t *testing.T) {
	got, err := NewEchoProvider().Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleUser, Content: "second"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "second" {
		t.Errorf("got %q, want second", got)
	}
}

func TestSplitTurns_SystemAndUser(t *testing.T) {
	system, parts := splitTurns(testMessages)
	if system != SystemPrompt {
		t.Errorf("system = %q, want system prompt", system)
	}
	if len(parts) != 1 {
		t.Fatalf("parts len = %d, want 1", len(parts))
	}
}

func TestGeminiProvider_MissingAPIKey(t *testing.T) {
	p, err := NewGeminiProvider(context.Background(), "", "gemini-2.0-flash", 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Complete(context.Background(), testMessages); !errors.Is(err, model.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
