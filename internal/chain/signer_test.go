package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanTypo/lottery-pc/internal/networks"
)

func TestNewLocalSignerAcceptsPrefixedKey(t *testing.T) {
	plain, err := NewLocalSigner(networks.DevPrivateKeys[0], 31337)
	require.NoError(t, err)
	prefixed, err := NewLocalSigner("0x"+networks.DevPrivateKeys[0], 31337)
	require.NoError(t, err)

	want := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Equal(t, want, plain.Address())
	assert.Equal(t, want, prefixed.Address())
	assert.Equal(t, int64(31337), plain.ChainID().Int64())
}

func TestNewLocalSignerRejectsGarbage(t *testing.T) {
	_, err := NewLocalSigner("not-a-key", 1)
	assert.Error(t, err)
}

func TestSignTransactionRecoversSender(t *testing.T) {
	s, err := NewLocalSigner(networks.DevPrivateKeys[1], 31337)
	require.NoError(t, err)

	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(31337),
		Nonce:     3,
		To:        &to,
		Value:     big.NewInt(1),
		Gas:       21000,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
	})

	signed, err := s.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), from)
}

func TestDevAccountsNamed(t *testing.T) {
	accounts, err := NewDevAccounts(networks.DevelopmentChainID)
	require.NoError(t, err)
	assert.Equal(t, 10, accounts.Len())

	deployer, err := accounts.Named("deployer")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), deployer.Address())

	acc3, err := accounts.Named("account3")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906"), acc3.Address())

	_, err = accounts.At(10)
	assert.Error(t, err)
}

func TestDevAccountsRefuseLiveChains(t *testing.T) {
	for _, id := range []int64{1, 5, 137, 80001} {
		_, err := NewDevAccounts(id)
		assert.Error(t, err, "chain %d", id)
	}
}
