package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

type blockingProvider struct{}

func (blockingProvider) Complete(ctx context.Context, _ []Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingProvider) Name() string { return "blocking" }

func TestWithTimeout_CancelsSlowCall(t *testing.T) {
	p := WithTimeout(blockingProvider{}, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Complete(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("call took %v, want ~20ms", elapsed)
	}
	if p.Name() != "blocking" {
		t.Errorf("Name = %q, want inner name", p.Name())
	}
}

func TestWithTimeout_ZeroIsPassthrough(t *testing.T) {
	inner := NewEchoProvider()
	if p := WithTimeout(inner, 0); p != Provider(inner) {
		t.Error("zero timeout should return the provider unchanged")
	}
}
