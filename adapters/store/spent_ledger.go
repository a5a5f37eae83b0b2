package store

import (
	"context"
	"strings"
	"sync"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// SpentLedger is an in-memory ports.SpentLedger. It lives for the process
// lifetime: a restart forgets every spent hash.
type SpentLedger struct {
	spent map[string]struct{}
	mu    sync.Mutex
}

// NewSpentLedger creates an empty ledger
func NewSpentLedger() ports.SpentLedger {
	return &SpentLedger{spent: make(map[string]struct{})}
}

// Claim marks the hash as spent
func (l *SpentLedger) Claim(ctx context.Context, txHash string) error {
	key := strings.ToLower(txHash)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.spent[key]; ok {
		return core.ErrPaymentAlreadyUsed
	}
	l.spent[key] = struct{}{}
	return nil
}

// Release forgets the hash
func (l *SpentLedger) Release(ctx context.Context, txHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.spent, strings.ToLower(txHash))
	return nil
}
