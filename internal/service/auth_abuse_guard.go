package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// AuthAbusePolicy shapes the progressive cooldown applied after repeated
// login failures for the same identity or source address.
type AuthAbusePolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

type AuthAbuseGuard interface {
	Check(ctx context.Context, identity, ip string) (time.Duration, error)
	RegisterFailure(ctx context.Context, identity, ip string) (time.Duration, error)
	Reset(ctx context.Context, identity, ip string) error
}

type NoopAuthAbuseGuard struct{}

func NewNoopAuthAbuseGuard() *NoopAuthAbuseGuard { return &NoopAuthAbuseGuard{} }

func (g *NoopAuthAbuseGuard) Check(context.Context, string, string) (time.Duration, error) {
	return 0, nil
}

func (g *NoopAuthAbuseGuard) RegisterFailure(context.Context, string, string) (time.Duration, error) {
	return 0, nil
}

func (g *NoopAuthAbuseGuard) Reset(context.Context, string, string) error { return nil }

type authAbuseEntry struct {
	FailCount     int
	LastFailureAt time.Time
	CooldownUntil time.Time
}

type InMemoryAuthAbuseGuard struct {
	mu     sync.Mutex
	policy AuthAbusePolicy
	data   map[string]authAbuseEntry
}

func NewInMemoryAuthAbuseGuard(policy AuthAbusePolicy) *InMemoryAuthAbuseGuard {
	return &InMemoryAuthAbuseGuard{
		policy: normalizeAuthAbusePolicy(policy),
		data:   make(map[string]authAbuseEntry),
	}
}

func (g *InMemoryAuthAbuseGuard) Check(_ context.Context, identity, ip string) (time.Duration, error) {
	now := time.Now().UTC()
	g.mu.Lock()
	defer g.mu.Unlock()

	identityDelay := g.activeCooldownLocked(now, g.stateKey("id", normalizeIdentity(identity)))
	ipDelay := g.activeCooldownLocked(now, g.stateKey("ip", normalizeIP(ip)))
	return max(identityDelay, ipDelay), nil
}

func (g *InMemoryAuthAbuseGuard) RegisterFailure(_ context.Context, identity, ip string) (time.Duration, error) {
	now := time.Now().UTC()
	g.mu.Lock()
	defer g.mu.Unlock()

	identityDelay := g.bumpLocked(now, g.stateKey("id", normalizeIdentity(identity)))
	ipDelay := g.bumpLocked(now, g.stateKey("ip", normalizeIP(ip)))
	return max(identityDelay, ipDelay), nil
}

func (g *InMemoryAuthAbuseGuard) Reset(_ context.Context, identity, ip string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, g.stateKey("id", normalizeIdentity(identity)))
	delete(g.data, g.stateKey("ip", normalizeIP(ip)))
	return nil
}

func (g *InMemoryAuthAbuseGuard) bumpLocked(now time.Time, key string) time.Duration {
	entry := g.data[key]
	if entry.LastFailureAt.IsZero() || now.Sub(entry.LastFailureAt) > g.policy.ResetWindow {
		entry.FailCount = 0
	}
	entry.FailCount++
	entry.LastFailureAt = now
	delay := g.computeDelay(entry.FailCount)
	entry.CooldownUntil = now.Add(delay)
	g.data[key] = entry
	return delay
}

func (g *InMemoryAuthAbuseGuard) activeCooldownLocked(now time.Time, key string) time.Duration {
	entry, ok := g.data[key]
	if !ok {
		return 0
	}
	if now.Sub(entry.LastFailureAt) > g.policy.ResetWindow {
		delete(g.data, key)
		return 0
	}
	if now.After(entry.CooldownUntil) {
		return 0
	}
	return entry.CooldownUntil.Sub(now)
}

func (g *InMemoryAuthAbuseGuard) computeDelay(failCount int) time.Duration {
	if failCount <= g.policy.FreeAttempts {
		return 0
	}
	power := math.Pow(g.policy.Multiplier, float64(failCount-g.policy.FreeAttempts-1))
	delay := time.Duration(float64(g.policy.BaseDelay) * power)
	if delay > g.policy.MaxDelay {
		return g.policy.MaxDelay
	}
	return delay
}

func (g *InMemoryAuthAbuseGuard) stateKey(dim, value string) string {
	return fmt.Sprintf("login:%s:%s", dim, value)
}

func normalizeIdentity(identity string) string {
	v := strings.TrimSpace(identity)
	if v == "" {
		return "anonymous"
	}
	return v
}

func normalizeIP(ip string) string {
	v := strings.TrimSpace(strings.ToLower(ip))
	if v == "" {
		return "unknown"
	}
	return v
}

func normalizeAuthAbusePolicy(policy AuthAbusePolicy) AuthAbusePolicy {
	if policy.FreeAttempts < 0 {
		policy.FreeAttempts = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 2 * time.Second
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 2
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = 5 * time.Minute
	}
	if policy.ResetWindow <= 0 {
		policy.ResetWindow = 30 * time.Minute
	}
	return policy
}
