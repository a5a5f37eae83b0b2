package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// AttemptPolicy bounds how balance lookups are attempted. Endpoints are always
// tried in configured order.
type AttemptPolicy struct {
	EndpointTimeout  time.Duration // Per endpoint attempt, zero leaves the querier's own timeout
	ChainConcurrency int           // Chains resolved in parallel, zero or less is unbounded
}

// BalanceResolver aggregates collection balances across chains with per-chain endpoint fallback
type BalanceResolver struct {
	querier ports.BalanceQuerier
	chains  []core.ChainBalanceQuery
	policy  AttemptPolicy
	metrics ports.Metrics
	log     logrus.FieldLogger
}

// NewBalanceResolver creates a resolver over a static chain list
func NewBalanceResolver(
	querier ports.BalanceQuerier,
	chains []core.ChainBalanceQuery,
	policy AttemptPolicy,
	metrics ports.Metrics,
	log logrus.FieldLogger,
) *BalanceResolver {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BalanceResolver{
		querier: querier,
		chains:  chains,
		policy:  policy,
		metrics: metrics,
		log:     log,
	}
}

// Chains returns the configured chain list
func (r *BalanceResolver) Chains() []core.ChainBalanceQuery {
	return r.chains
}

// ResolveChainBalance returns the first balance any endpoint reports. It never
// fails: when every endpoint fails the balance is zero.
func (r *BalanceResolver) ResolveChainBalance(ctx context.Context, chain core.ChainBalanceQuery, principal core.Principal) *big.Int {
	holder := principal.Address()
	for _, endpoint := range chain.Endpoints {
		balance, err := r.attempt(ctx, endpoint, chain, holder)
		if err == nil {
			r.metrics.RPCAttempt(chain.Name, "ok")
			return balance
		}
		r.metrics.RPCAttempt(chain.Name, "error")
		r.log.WithFields(logrus.Fields{
			"chain":    chain.Name,
			"endpoint": endpoint,
			"error":    err,
		}).Warn("balance query failed, trying next endpoint")
	}

	r.metrics.RPCAttempt(chain.Name, "exhausted")
	r.log.WithField("chain", chain.Name).Error("all RPC endpoints failed, treating balance as zero")
	return new(big.Int)
}

func (r *BalanceResolver) attempt(ctx context.Context, endpoint string, chain core.ChainBalanceQuery, holder common.Address) (*big.Int, error) {
	if r.policy.EndpointTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.policy.EndpointTimeout)
		defer cancel()
	}
	return r.querier.QueryBalance(ctx, endpoint, chain.Contract, chain.Selector, holder)
}

// ResolveOwnership resolves every chain concurrently and sums the balances.
// One chain's outage never blocks the others.
func (r *BalanceResolver) ResolveOwnership(ctx context.Context, principal core.Principal) core.NFTOwnership {
	balances := make([]core.ChainBalance, len(r.chains))

	var g errgroup.Group
	if r.policy.ChainConcurrency > 0 {
		g.SetLimit(r.policy.ChainConcurrency)
	}
	for i, chain := range r.chains {
		i, chain := i, chain
		g.Go(func() error {
			balance := r.ResolveChainBalance(ctx, chain, principal)
			balances[i] = core.ChainBalance{
				Name:     chain.Name,
				Contract: chain.Contract.Hex(),
				Balance:  balance,
				HasNFT:   balance.Sign() > 0,
			}
			return nil
		})
	}
	_ = g.Wait()

	return core.NewNFTOwnership(balances)
}
