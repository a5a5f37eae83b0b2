package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// PaymentService unlocks exactly one downstream call per verified payment
type PaymentService struct {
	verifier *PaymentVerifier
	expected core.PaymentExpectation
	ledger   ports.SpentLedger // nil disables replay protection
	search   ports.SearchClient
	eventPub ports.EventPublisher
	log      logrus.FieldLogger
}

// NewPaymentService creates the paid-call flow. A nil verifier or search client
// means the receipt RPC or downstream token is not configured.
func NewPaymentService(
	verifier *PaymentVerifier,
	expected core.PaymentExpectation,
	ledger ports.SpentLedger,
	search ports.SearchClient,
	eventPub ports.EventPublisher,
	log logrus.FieldLogger,
) *PaymentService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PaymentService{
		verifier: verifier,
		expected: expected,
		ledger:   ledger,
		search:   search,
		eventPub: eventPub,
		log:      log,
	}
}

// PaidSearch verifies the payment transaction and forwards one query.
// A payment is spent only once the downstream call succeeds.
func (s *PaymentService) PaidSearch(ctx context.Context, txHash string, query core.SearchQuery) (json.RawMessage, error) {
	if strings.TrimSpace(txHash) == "" || strings.TrimSpace(query.Request) == "" {
		return nil, core.ErrPaymentFields
	}
	hash, err := core.ParseTxHash(txHash)
	if err != nil {
		return nil, err
	}
	if s.verifier == nil || s.search == nil || s.expected.Amount == nil {
		return nil, core.ErrNotConfigured
	}

	log := s.log.WithField("tx_hash", hash.Hex())

	outcome, err := s.verifier.Check(ctx, hash, s.expected)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case PaymentNotFound:
		return nil, core.ErrPaymentNotFound
	case PaymentMismatch:
		return nil, core.ErrPaymentMismatch
	}

	if s.ledger != nil {
		if err := s.ledger.Claim(ctx, hash.Hex()); err != nil {
			if errors.Is(err, core.ErrPaymentAlreadyUsed) {
				log.Info("rejected replayed payment")
			}
			return nil, err
		}
	}

	result, err := s.search.Search(ctx, query)
	if err != nil {
		if s.ledger != nil {
			if releaseErr := s.ledger.Release(ctx, hash.Hex()); releaseErr != nil {
				log.WithError(releaseErr).Error("failed to release payment after downstream failure")
			}
		}
		return nil, fmt.Errorf("paid search failed: %w", err)
	}

	if s.eventPub != nil {
		amount := core.FormatUnits(s.expected.Amount, s.expected.Decimals)
		if err := s.eventPub.PublishPaymentVerified(ctx, hash.Hex(), s.expected.Receiver.Hex(), amount); err != nil {
			log.WithError(err).Warn("failed to publish payment event")
		}
	}

	log.Info("paid search served")
	return result, nil
}
