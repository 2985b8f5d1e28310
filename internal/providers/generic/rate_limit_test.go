package generic

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestRateLimiter_DurationHeaders(t *testing.T) {
	rl := NewRateLimiter("remaining", "reset")
	h := http.Header{}
	h.Set("remaining", "10")
	h.Set("reset", "2s")
	if err := rl.UpdateFromHeaders(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rl.remainingTokens != 10 {
		t.Errorf("expected remaining 10, got %v", rl.remainingTokens)
	}
	if d := time.Until(rl.resetTokens); d < time.Second || d > 3*time.Second {
		t.Errorf("expected ~2s reset, got %v", d)
	}
}

func TestRateLimiter_UnixHeaders(t *testing.T) {
	rl := NewRateLimiter("remaining", "reset")
	h := http.Header{}
	h.Set("remaining", "5")
	ts := time.Now().Add(3 * time.Second).Unix()
	h.Set("reset", fmt.Sprintf("%d", ts))
	if err := rl.UpdateFromHeaders(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := time.Until(rl.resetTokens); d < 2*time.Second || d > 4*time.Second {
		t.Errorf("expected ~3s reset, got %v", d)
	}
}

func TestRateLimiter_Missing(t *testing.T) {
	rl := NewRateLimiter("remaining", "reset")
	h := http.Header{}
	h.Set("remaining", "1")
	if err := rl.UpdateFromHeaders(h); err == nil {
		t.Fatal("expected error")
	}
	if rl.remainingTokens != 1 || !rl.resetTokens.IsZero() {
		t.Fatalf("unexpected state after failed update: %+v", rl)
	}
}

func TestRateLimiter_ZeroValueNeverWaits(t *testing.T) {
	var rl RateLimiter
	if err := rl.UpdateFromHeaders(http.Header{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Now()
	rl.WaitIfNeeded(context.Background())
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("zero value limiter should not wait")
	}
}

func TestRateLimiter_WaitReturnsOnCancel(t *testing.T) {
	rl := NewRateLimiter("remaining", "reset")
	rl.remainingTokens = 1
	rl.resetTokens = time.Now().Add(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	rl.WaitIfNeeded(ctx)
	if time.Since(start) > time.Second {
		t.Fatal("expected wait to stop on context cancel")
	}
}
