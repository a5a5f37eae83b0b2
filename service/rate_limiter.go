package service

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// RateLimiter applies the fixed-window quota matching a session's class
type RateLimiter struct {
	store   ports.RateLimitStore
	nft     core.RateLimitProfile
	regular core.RateLimitProfile
	metrics ports.Metrics
	now     func() time.Time
}

// NewRateLimiter creates a limiter with one profile per session class
func NewRateLimiter(store ports.RateLimitStore, nft, regular core.RateLimitProfile, metrics ports.Metrics) *RateLimiter {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &RateLimiter{
		store:   store,
		nft:     nft,
		regular: regular,
		metrics: metrics,
		now:     time.Now,
	}
}

// ProfileFor returns the quota profile for a session class
func (l *RateLimiter) ProfileFor(class core.SessionClass) core.RateLimitProfile {
	if class == core.SessionClassNFT {
		return l.nft
	}
	return l.regular
}

// CheckLimit records one request for the session's subject and reports whether it may proceed
func (l *RateLimiter) CheckLimit(ctx context.Context, session core.Session) (core.RateLimitDecision, error) {
	profile := l.ProfileFor(session.Class)
	decision, err := l.store.Hit(ctx, limitKey(session), profile, l.now())
	if err != nil {
		return core.RateLimitDecision{}, fmt.Errorf("failed to record request: %w", err)
	}
	l.metrics.RateLimitDecision(profile.Name, decision.Allowed)
	return decision, nil
}

// Status reports the remaining quota without consuming it
func (l *RateLimiter) Status(ctx context.Context, session core.Session) (core.RateLimitDecision, error) {
	decision, err := l.store.Peek(ctx, limitKey(session), l.ProfileFor(session.Class), l.now())
	if err != nil {
		return core.RateLimitDecision{}, fmt.Errorf("failed to read quota: %w", err)
	}
	return decision, nil
}

// Subjects of different classes never share a window
func limitKey(session core.Session) string {
	return string(session.Class) + ":" + session.Subject()
}
