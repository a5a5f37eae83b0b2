package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BalanceQuerier issues a single balance query against one RPC endpoint
type BalanceQuerier interface {
	QueryBalance(ctx context.Context, endpoint string, contract common.Address, selector [4]byte, holder common.Address) (*big.Int, error)
}

// ReceiptFetcher fetches transaction receipts. A missing receipt is (nil, nil).
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}
