package service

import (
	"context"
	"testing"
	"time"
)

func testPolicy() AuthAbusePolicy {
	return AuthAbusePolicy{
		FreeAttempts: 2,
		BaseDelay:    time.Second,
		Multiplier:   2,
		MaxDelay:     8 * time.Second,
		ResetWindow:  time.Hour,
	}
}

func TestGuardFreeAttemptsHaveNoCooldown(t *testing.T) {
	g := NewInMemoryAuthAbuseGuard(testPolicy())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		delay, err := g.RegisterFailure(ctx, "a@example.com", "1.1.1.1")
		if err != nil {
			t.Fatalf("register failure %d: %v", i, err)
		}
		if delay != 0 {
			t.Fatalf("attempt %d: expected no cooldown, got %v", i+1, delay)
		}
	}
	if cooldown, _ := g.Check(ctx, "a@example.com", "1.1.1.1"); cooldown != 0 {
		t.Fatalf("expected no active cooldown, got %v", cooldown)
	}
}

func TestGuardCooldownGrowsAndCaps(t *testing.T) {
	g := NewInMemoryAuthAbuseGuard(testPolicy())
	ctx := context.Background()

	// Two free attempts, then 1s, 2s, 4s, 8s, capped at 8s.
	expected := []time.Duration{0, 0, time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, want := range expected {
		got, err := g.RegisterFailure(ctx, "b@example.com", "2.2.2.2")
		if err != nil {
			t.Fatalf("register failure %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("attempt %d: expected cooldown %v, got %v", i+1, want, got)
		}
	}
}

func TestGuardTracksIdentityAndIPSeparately(t *testing.T) {
	g := NewInMemoryAuthAbuseGuard(testPolicy())
	ctx := context.Background()

	// Burn through the identity's free attempts from one address.
	for i := 0; i < 3; i++ {
		if _, err := g.RegisterFailure(ctx, "c@example.com", "3.3.3.3"); err != nil {
			t.Fatalf("register failure: %v", err)
		}
	}

	// Same identity from a fresh address is still throttled.
	if cooldown, _ := g.Check(ctx, "c@example.com", "9.9.9.9"); cooldown <= 0 {
		t.Fatal("expected identity cooldown to follow the account")
	}
	// Same address with a fresh identity is also throttled.
	if cooldown, _ := g.Check(ctx, "fresh@example.com", "3.3.3.3"); cooldown <= 0 {
		t.Fatal("expected ip cooldown to follow the address")
	}
	// Fresh identity from a fresh address is clear.
	if cooldown, _ := g.Check(ctx, "fresh@example.com", "9.9.9.9"); cooldown != 0 {
		t.Fatalf("expected no cooldown, got %v", cooldown)
	}
}

func TestGuardResetClearsState(t *testing.T) {
	g := NewInMemoryAuthAbuseGuard(testPolicy())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := g.RegisterFailure(ctx, "d@example.com", "4.4.4.4"); err != nil {
			t.Fatalf("register failure: %v", err)
		}
	}
	if cooldown, _ := g.Check(ctx, "d@example.com", "4.4.4.4"); cooldown <= 0 {
		t.Fatal("expected active cooldown before reset")
	}
	if err := g.Reset(ctx, "d@example.com", "4.4.4.4"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cooldown, _ := g.Check(ctx, "d@example.com", "4.4.4.4"); cooldown != 0 {
		t.Fatalf("expected cleared state, got %v", cooldown)
	}
}

func TestGuardResetWindowExpiresState(t *testing.T) {
	policy := testPolicy()
	policy.ResetWindow = 30 * time.Millisecond
	g := NewInMemoryAuthAbuseGuard(policy)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := g.RegisterFailure(ctx, "e@example.com", "5.5.5.5"); err != nil {
			t.Fatalf("register failure: %v", err)
		}
	}
	time.Sleep(60 * time.Millisecond)

	if cooldown, _ := g.Check(ctx, "e@example.com", "5.5.5.5"); cooldown != 0 {
		t.Fatalf("expected state to expire after reset window, got %v", cooldown)
	}
	// The failure count starts over too.
	if delay, _ := g.RegisterFailure(ctx, "e@example.com", "5.5.5.5"); delay != 0 {
		t.Fatalf("expected a fresh free attempt after expiry, got %v", delay)
	}
}

func TestGuardPolicyNormalization(t *testing.T) {
	g := NewInMemoryAuthAbuseGuard(AuthAbusePolicy{FreeAttempts: -1})
	if g.policy.FreeAttempts != 0 {
		t.Fatalf("expected free attempts clamped to 0, got %d", g.policy.FreeAttempts)
	}
	if g.policy.BaseDelay <= 0 || g.policy.Multiplier < 1 || g.policy.MaxDelay < g.policy.BaseDelay || g.policy.ResetWindow <= 0 {
		t.Fatalf("expected defaults applied, got %+v", g.policy)
	}
}

func TestNoopGuard(t *testing.T) {
	g := NewNoopAuthAbuseGuard()
	ctx := context.Background()
	if d, err := g.Check(ctx, "x", "y"); d != 0 || err != nil {
		t.Fatalf("check: d=%v err=%v", d, err)
	}
	if d, err := g.RegisterFailure(ctx, "x", "y"); d != 0 || err != nil {
		t.Fatalf("register: d=%v err=%v", d, err)
	}
	if err := g.Reset(ctx, "x", "y"); err != nil {
		t.Fatalf("reset: %v", err)
	}
}
