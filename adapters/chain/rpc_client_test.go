package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/nftgate/core"
)

var (
	testContract = common.HexToAddress("0x8cf392D33050F96cF6D0748486490d3dEae52564")
	testHolder   = common.HexToAddress("0xABCDEF0000000000000000000000000000000001")
	testSelector = [4]byte{0x70, 0xa0, 0x82, 0x31}
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRPCServer answers every JSON-RPC request with the reply built by fn,
// echoing the request id.
func newRPCServer(t *testing.T, fn func(req rpcRequest) map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reply := fn(req)
		reply["jsonrpc"] = "2.0"
		reply["id"] = req.ID
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQueryBalanceBuildsCallData(t *testing.T) {
	var got rpcRequest
	srv := newRPCServer(t, func(req rpcRequest) map[string]any {
		got = req
		return map[string]any{"result": "0x" + strings.Repeat("0", 63) + "5"}
	})

	client := NewRPCClient(time.Second, srv.Client())
	balance, err := client.QueryBalance(context.Background(), srv.URL, testContract, testSelector, testHolder)
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.Int64())

	require.Equal(t, "eth_call", got.Method)
	require.Len(t, got.Params, 2)
	assert.JSONEq(t, `"latest"`, string(got.Params[1]))

	var args struct {
		To   string `json:"to"`
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(got.Params[0], &args))
	assert.True(t, strings.EqualFold(testContract.Hex(), args.To))
	assert.Equal(t, "0x70a08231"+"000000000000000000000000abcdef0000000000000000000000000000000001", args.Data)
}

func TestQueryBalanceFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"http status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewRPCClient(time.Second, srv.Client()).QueryBalance(context.Background(), srv.URL, testContract, testSelector, testHolder)
			assert.Error(t, err)
		})
	}

	t.Run("rpc error", func(t *testing.T) {
		srv := newRPCServer(t, func(rpcRequest) map[string]any {
			return map[string]any{"error": map[string]any{"code": -32000, "message": "execution reverted"}}
		})
		_, err := NewRPCClient(time.Second, srv.Client()).QueryBalance(context.Background(), srv.URL, testContract, testSelector, testHolder)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution reverted")
	})

	for _, result := range []any{"0x", "not-hex", nil, 12} {
		srv := newRPCServer(t, func(rpcRequest) map[string]any {
			return map[string]any{"result": result}
		})
		_, err := NewRPCClient(time.Second, srv.Client()).QueryBalance(context.Background(), srv.URL, testContract, testSelector, testHolder)
		assert.Error(t, err, "result %v", result)
	}
}

func TestQueryBalanceMalformedResult(t *testing.T) {
	srv := newRPCServer(t, func(rpcRequest) map[string]any {
		return map[string]any{"result": "0xzz"}
	})
	_, err := NewRPCClient(time.Second, srv.Client()).QueryBalance(context.Background(), srv.URL, testContract, testSelector, testHolder)
	assert.ErrorIs(t, err, core.ErrMalformedResult)
}

func TestQueryBalanceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := NewRPCClient(50*time.Millisecond, srv.Client()).QueryBalance(context.Background(), srv.URL, testContract, testSelector, testHolder)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTransactionReceipt(t *testing.T) {
	txHash := common.HexToHash("0x01")
	receipt := &types.Receipt{
		Type:              types.DynamicFeeTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 21000,
		GasUsed:           21000,
		Logs:              []*types.Log{},
		TxHash:            txHash,
		BlockNumber:       big.NewInt(7),
		EffectiveGasPrice: big.NewInt(1),
	}

	srv := newRPCServer(t, func(req rpcRequest) map[string]any {
		if req.Method != "eth_getTransactionReceipt" {
			return map[string]any{"error": map[string]any{"code": -32601, "message": "method not found"}}
		}
		var hash common.Hash
		_ = json.Unmarshal(req.Params[0], &hash)
		if hash != txHash {
			return map[string]any{"result": nil}
		}
		return map[string]any{"result": receipt}
	})

	client, err := NewReceiptClient(context.Background(), srv.URL, time.Second, srv.Client())
	require.NoError(t, err)
	defer client.Close()

	got, err := client.TransactionReceipt(context.Background(), txHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.ReceiptStatusSuccessful, got.Status)

	missing, err := client.TransactionReceipt(context.Background(), common.HexToHash("0x02"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
