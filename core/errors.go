package core

import (
	"errors"
	"fmt"
)

var (
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenMalformed     = errors.New("invalid NFT token format")
	ErrNFTRequired        = errors.New("NFT required for access")
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrMissingCredentials = errors.New("wallet address, signature, and message are required")
	ErrNotConfigured      = errors.New("server configuration error")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidTxHash      = errors.New("invalid transaction hash")
	ErrQueryRequired      = errors.New("search query is required")
	ErrPaymentFields      = errors.New("txHash and request are required")
	ErrSearchUnavailable  = errors.New("OSINT API is not configured")

	// Payment errors
	ErrPaymentNotFound    = errors.New("transaction not found or failed")
	ErrPaymentMismatch    = errors.New("payment not detected or amount mismatch")
	ErrPaymentAlreadyUsed = errors.New("payment already used")
	ErrReceiptUnavailable = errors.New("transaction receipt unavailable")

	// Chain RPC errors
	ErrMalformedResult = errors.New("malformed eth_call result")
)

// AccessDeniedError is returned when a wallet holds no qualifying NFT
type AccessDeniedError struct {
	Ownership NFTOwnership
}

func (e *AccessDeniedError) Error() string {
	return "access denied: no NFT from the authorized collection"
}

// UpstreamError is returned when the downstream API fails or answers with a non-2xx status.
// Message is safe to show to callers, Err is not.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream returned status %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// UpstreamRejectedError is returned when the downstream API reports an "Error code" in a 2xx body
type UpstreamRejectedError struct {
	Code string
}

func (e *UpstreamRejectedError) Error() string {
	return "upstream error: " + e.Code
}

// BadUpstreamCredentials reports whether the downstream rejected our own API token
func (e *UpstreamRejectedError) BadUpstreamCredentials() bool {
	return e.Code == "bad token"
}
