package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceOfSelector is the 4-byte selector of balanceOf(address)
const BalanceOfSelector = "0x70a08231"

// ChainBalanceQuery is the static description of where to look up a balance on one chain
type ChainBalanceQuery struct {
	Name      string         // Display name of the chain
	Endpoints []string       // RPC endpoints, tried in order
	Contract  common.Address // Collection contract
	Selector  [4]byte        // Balance query function selector
}

// ChainBalance is the resolved balance on one chain
type ChainBalance struct {
	Name     string   `json:"name"`
	Contract string   `json:"contractAddress"`
	Balance  *big.Int `json:"balance"`
	HasNFT   bool     `json:"hasNFT"`
}

// NFTOwnership aggregates balances across chains. Computed per request and never cached.
type NFTOwnership struct {
	OwnsAny         bool                `json:"hasNFT"`
	TotalBalance    *big.Int            `json:"totalBalance"`
	PerChainBalance map[string]*big.Int `json:"perChainBalance"`
	Chains          []ChainBalance      `json:"networks"`
}

// NewNFTOwnership sums the per-chain balances, preserving chain order
func NewNFTOwnership(balances []ChainBalance) NFTOwnership {
	total := new(big.Int)
	per := make(map[string]*big.Int, len(balances))
	for _, b := range balances {
		if b.Balance == nil {
			b.Balance = new(big.Int)
		}
		per[b.Name] = b.Balance
		total.Add(total, b.Balance)
	}
	return NFTOwnership{
		OwnsAny:         total.Sign() > 0,
		TotalBalance:    total,
		PerChainBalance: per,
		Chains:          balances,
	}
}
