package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/layer-3/nftgate/core"
)

var errEndpointDown = errors.New("endpoint down")

// fakeQuerier answers balance queries per endpoint
type fakeQuerier struct {
	mu      sync.Mutex
	answers map[string]func(ctx context.Context) (*big.Int, error)
	calls   []string
}

func (f *fakeQuerier) QueryBalance(ctx context.Context, endpoint string, _ common.Address, _ [4]byte, _ common.Address) (*big.Int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, endpoint)
	answer, ok := f.answers[endpoint]
	f.mu.Unlock()
	if !ok {
		return nil, errEndpointDown
	}
	return answer(ctx)
}

func (f *fakeQuerier) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func balanceOf(n int64) func(context.Context) (*big.Int, error) {
	return func(context.Context) (*big.Int, error) { return big.NewInt(n), nil }
}

func hangUntilCancelled(ctx context.Context) (*big.Int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeReceipts struct {
	receipt *types.Receipt
	err     error
}

func (f *fakeReceipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return f.receipt, f.err
}

type fakeSearch struct {
	mu      sync.Mutex
	queries []core.SearchQuery
	reply   json.RawMessage
	err     error
}

func (f *fakeSearch) Search(_ context.Context, q core.SearchQuery) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.reply, f.err
}

type publishedEvent struct {
	kind   string
	fields []string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) PublishLoginGranted(_ context.Context, address, totalBalance string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{kind: "login", fields: []string{address, totalBalance}})
	return nil
}

func (f *fakePublisher) PublishPaymentVerified(_ context.Context, txHash, receiver, amount string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{kind: "payment", fields: []string{txHash, receiver, amount}})
	return nil
}
