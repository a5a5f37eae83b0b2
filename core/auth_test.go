package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrincipal(t *testing.T) {
	p, err := ParsePrincipal("0xABCDEF0000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, Principal("0xabcdef0000000000000000000000000000000001"), p)
	assert.Equal(t, "0xabcd...0001", p.Short())

	for _, bad := range []string{"", "0x123", "abcdef0000000000000000000000000000000001", "0xZZCDEF0000000000000000000000000000000001"} {
		_, err := ParsePrincipal(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

func TestValidateLoginMessage(t *testing.T) {
	p, err := ParsePrincipal("0xABCDEF0000000000000000000000000000000001")
	require.NoError(t, err)

	assert.NoError(t, ValidateLoginMessage("Login to OSINT HUB with wallet: 0xABCDEF0000000000000000000000000000000001", p))
	assert.NoError(t, ValidateLoginMessage("Login to OSINT HUB with wallet: 0xabcdef0000000000000000000000000000000001\nnonce: 1", p))
	assert.ErrorIs(t, ValidateLoginMessage("hello 0xABCDEF0000000000000000000000000000000001", p), ErrInvalidMessage)
	assert.ErrorIs(t, ValidateLoginMessage("Login to OSINT HUB with wallet: 0x0000000000000000000000000000000000000002", p), ErrInvalidMessage)
}

func TestNewNFTOwnership(t *testing.T) {
	o := NewNFTOwnership([]ChainBalance{
		{Name: "Monad Testnet", Balance: big.NewInt(0)},
		{Name: "Base Mainnet", Balance: big.NewInt(5)},
	})
	assert.True(t, o.OwnsAny)
	assert.Equal(t, int64(5), o.TotalBalance.Int64())
	assert.Equal(t, int64(0), o.PerChainBalance["Monad Testnet"].Int64())

	empty := NewNFTOwnership([]ChainBalance{{Name: "Base Mainnet"}})
	assert.False(t, empty.OwnsAny)
	assert.Equal(t, 0, empty.TotalBalance.Sign())
}
