package ports

import (
	"context"
	"time"

	"github.com/layer-3/nftgate/core"
)

// RateLimitStore holds one window entry per key. Hit must apply the
// read-modify-write atomically per key.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, profile core.RateLimitProfile, now time.Time) (core.RateLimitDecision, error)
	Peek(ctx context.Context, key string, profile core.RateLimitProfile, now time.Time) (core.RateLimitDecision, error)
}

// SpentLedger records transaction hashes that already paid for a call
type SpentLedger interface {
	// Claim marks the hash as spent. It returns core.ErrPaymentAlreadyUsed when the hash was claimed before.
	Claim(ctx context.Context, txHash string) error

	// Release undoes a claim so the hash may be used again
	Release(ctx context.Context, txHash string) error
}
