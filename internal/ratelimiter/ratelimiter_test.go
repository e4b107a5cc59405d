package ratelimiter

import (
	"context"
	"testing"
	"time"
)

// TestNew verifies rate limiter creation with different parameters.
func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		perSecond int
		burst     int
		unlimited bool
	}{
		{name: "standard rate", perSecond: 100, burst: 200},
		{name: "burst defaults to rate", perSecond: 10, burst: 0},
		{name: "unlimited (zero rate)", perSecond: 0, burst: 0, unlimited: true},
		{name: "negative rate is unlimited", perSecond: -1, burst: 5, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.perSecond, tt.burst)
			if limiter == nil {
				t.Fatal("New() returned nil")
			}
			if limiter.Unlimited() != tt.unlimited {
				t.Fatalf("Unlimited() = %v, want %v", limiter.Unlimited(), tt.unlimited)
			}
		})
	}
}

// TestAllow verifies that Allow() enforces the burst capacity.
func TestAllow(t *testing.T) {
	limiter := New(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("connection %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Fatal("connection beyond burst should be rejected")
	}
}

// TestUnlimitedNeverBlocks verifies the zero-rate limiter.
func TestUnlimitedNeverBlocks(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10000; i++ {
		if !limiter.Allow() {
			t.Fatalf("unlimited limiter rejected connection %d", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("Wait on unlimited limiter failed: %v", err)
	}
}

// TestWaitCancelled verifies that Wait honours context cancellation.
func TestWaitCancelled(t *testing.T) {
	limiter := New(1, 1)
	if !limiter.Allow() {
		t.Fatal("first token should be available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected error from Wait with cancelled context")
	}
}
