package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// DefaultTimeout bounds a single RPC round trip
const DefaultTimeout = 10 * time.Second

// RPCClient implements ports.BalanceQuerier with one eth_call per query
type RPCClient struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewRPCClient creates a balance client. A nil httpClient gets an instrumented default transport.
func NewRPCClient(timeout time.Duration, httpClient *http.Client) ports.BalanceQuerier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &RPCClient{httpClient: httpClient, timeout: timeout}
}

// NewHTTPClient returns an HTTP client whose transport is traced with otelhttp
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// BalanceCallData builds selector || holder left-padded to 32 bytes
func BalanceCallData(selector [4]byte, holder common.Address) []byte {
	data := make([]byte, 0, 4+32)
	data = append(data, selector[:]...)
	return append(data, common.LeftPadBytes(holder.Bytes(), 32)...)
}

// QueryBalance runs eth_call at the latest block. Transport failures, JSON-RPC
// errors and undecodable results are all returned as errors, never as zero.
func (c *RPCClient) QueryBalance(ctx context.Context, endpoint string, contract common.Address, selector [4]byte, holder common.Address) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	defer client.Close()

	var raw json.RawMessage
	args := callArgs{To: contract, Data: BalanceCallData(selector, holder)}
	if err := client.CallContext(ctx, &raw, "eth_call", args, "latest"); err != nil {
		return nil, fmt.Errorf("eth_call on %s: %w", endpoint, err)
	}

	return decodeBalance(raw)
}

func decodeBalance(raw json.RawMessage) (*big.Int, error) {
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrMalformedResult, string(raw))
	}
	b, err := hexutil.Decode(hex)
	if err != nil || len(b) == 0 || len(b) > 32 {
		return nil, fmt.Errorf("%w: %q", core.ErrMalformedResult, hex)
	}
	return new(big.Int).SetBytes(b), nil
}
