package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowPerKey(t *testing.T) {
	l := New(0.001, 2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request on key a should be rejected")
	}
	if !l.Allow("b") {
		t.Error("key b has its own bucket")
	}
}

func TestUnlimited(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow("x") {
			t.Fatalf("request %d rejected with no limit", i)
		}
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(0.001, 1)
	if err := l.Wait(context.Background(), "k"); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k"); err == nil {
		t.Error("Wait() should fail when the next token is beyond the deadline")
	}
}
