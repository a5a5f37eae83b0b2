package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const erc20TransferABI = `[{"anonymous":false,"inputs":[
	{"indexed":true,"name":"from","type":"address"},
	{"indexed":true,"name":"to","type":"address"},
	{"indexed":false,"name":"value","type":"uint256"}
],"name":"Transfer","type":"event"}]`

var transferABI = mustParseABI(erc20TransferABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// PaymentOutcome classifies a receipt check
type PaymentOutcome string

const (
	PaymentVerified PaymentOutcome = "verified"
	PaymentNotFound PaymentOutcome = "not_found"
	PaymentMismatch PaymentOutcome = "mismatch"
)

// PaymentVerifier checks that a transaction emitted an exact token transfer.
// It has no notion of spent transactions.
type PaymentVerifier struct {
	receipts ports.ReceiptFetcher
	metrics  ports.Metrics
}

// NewPaymentVerifier creates a verifier reading receipts from the given fetcher
func NewPaymentVerifier(receipts ports.ReceiptFetcher, metrics ports.Metrics) *PaymentVerifier {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &PaymentVerifier{receipts: receipts, metrics: metrics}
}

// Verify reports whether the transaction paid exactly the expected amount to the expected receiver
func (v *PaymentVerifier) Verify(ctx context.Context, txHash common.Hash, expected core.PaymentExpectation) (bool, error) {
	outcome, err := v.Check(ctx, txHash, expected)
	if err != nil {
		return false, err
	}
	return outcome == PaymentVerified, nil
}

// Check is Verify with the reason a payment was not accepted
func (v *PaymentVerifier) Check(ctx context.Context, txHash common.Hash, expected core.PaymentExpectation) (PaymentOutcome, error) {
	if v.receipts == nil {
		return "", core.ErrNotConfigured
	}

	receipt, err := v.receipts.TransactionReceipt(ctx, txHash)
	if err != nil {
		v.metrics.PaymentVerification("error")
		return "", fmt.Errorf("%w: %v", core.ErrReceiptUnavailable, err)
	}

	outcome := evaluateReceipt(receipt, expected)
	v.metrics.PaymentVerification(string(outcome))
	return outcome, nil
}

func evaluateReceipt(receipt *types.Receipt, expected core.PaymentExpectation) PaymentOutcome {
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		return PaymentNotFound
	}
	for _, log := range receipt.Logs {
		if matchesTransfer(log, expected) {
			return PaymentVerified
		}
	}
	return PaymentMismatch
}

func matchesTransfer(log *types.Log, expected core.PaymentExpectation) bool {
	if log == nil || log.Address != expected.TokenContract {
		return false
	}

	event := transferABI.Events["Transfer"]
	if len(log.Topics) != 3 || log.Topics[0] != event.ID {
		return false
	}
	if common.BytesToAddress(log.Topics[2].Bytes()) != expected.Receiver {
		return false
	}

	values, err := transferABI.Unpack("Transfer", log.Data)
	if err != nil || len(values) != 1 {
		return false
	}
	value, ok := values[0].(*big.Int)
	if !ok || expected.Amount == nil {
		return false
	}
	return value.Cmp(expected.Amount) == 0
}
