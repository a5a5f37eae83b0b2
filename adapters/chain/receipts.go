package chain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ReceiptClient fetches transaction receipts from a single endpoint
type ReceiptClient struct {
	client  *ethclient.Client
	timeout time.Duration
}

// NewReceiptClient dials the endpoint. For HTTP endpoints no connection is made until the first call.
func NewReceiptClient(ctx context.Context, endpoint string, timeout time.Duration, httpClient *http.Client) (*ReceiptClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	rc, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	return &ReceiptClient{client: ethclient.NewClient(rc), timeout: timeout}, nil
}

// TransactionReceipt returns (nil, nil) when the node does not know the transaction
func (c *ReceiptClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt %s: %w", txHash.Hex(), err)
	}
	return receipt, nil
}

// Close releases the underlying client
func (c *ReceiptClient) Close() {
	c.client.Close()
}
