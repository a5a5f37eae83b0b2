package core

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var txHashPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// PaymentExpectation is the transfer a receipt must contain to unlock one call
type PaymentExpectation struct {
	TokenContract common.Address
	Receiver      common.Address
	Amount        *big.Int // Smallest token unit
	Decimals      int32
}

// ParseTxHash validates the transaction hash shape
func ParseTxHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !txHashPattern.MatchString(s) {
		return common.Hash{}, ErrInvalidTxHash
	}
	return common.HexToHash(s), nil
}

// ParseUnits converts a decimal string such as "0.30" into an integer amount of the
// smallest unit at the given precision. Digits beyond the precision are truncated.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAmount, amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w %q: negative", ErrInvalidAmount, amount)
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}

// FormatUnits renders an integer amount of the smallest unit as a decimal string
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// SearchQuery is a free-text query forwarded to the downstream intelligence API
type SearchQuery struct {
	Request string
	Limit   int    // Omitted downstream when zero
	Lang    string // Omitted downstream when empty
}
