package networks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

func TestResolveDevelopmentNetworks(t *testing.T) {
	hh, err := Resolve("hardhat", Endpoints{})
	require.NoError(t, err)
	assert.True(t, hh.InProcess())
	assert.True(t, hh.IsDevelopment())
	assert.Equal(t, DevelopmentChainID, hh.ChainID)
	assert.Equal(t, uint64(1), hh.BlockConfirmations)
	assert.Len(t, hh.Accounts, len(DevPrivateKeys))

	p, err := hh.Params()
	require.NoError(t, err)
	assert.Equal(t, "localhost", p.Name)

	lh, err := Resolve("localhost", Endpoints{})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", lh.URL)
	assert.False(t, lh.InProcess())

	lh, err = Resolve("localhost", Endpoints{RPCURLs: map[string]string{"localhost": "http://node:8545"}})
	require.NoError(t, err)
	assert.Equal(t, "http://node:8545", lh.URL)
}

func TestResolveLiveNetwork(t *testing.T) {
	ep := Endpoints{
		RPCURLs:     map[string]string{"goerli": "https://goerli.example"},
		PrivateKeys: []string{"aa", "", "bb"},
	}
	n, err := Resolve("goerli", ep)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.ChainID)
	assert.Equal(t, VerificationBlockConfirmations, n.BlockConfirmations)
	assert.Equal(t, []string{"aa", "bb"}, n.Accounts)
	assert.False(t, n.IsDevelopment())
}

func TestResolveLiveNetworkRequiresURLAndKey(t *testing.T) {
	_, err := Resolve("mumbai", Endpoints{PrivateKeys: []string{"aa"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "MUMBAI_RPC_URL")

	_, err = Resolve("mumbai", Endpoints{RPCURLs: map[string]string{"mumbai": "https://m"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRIVATE_KEY_ACC1")
}

func TestResolveUnknownNetwork(t *testing.T) {
	_, err := Resolve("sepolia", Endpoints{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedNetwork))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"ethereum", "goerli", "hardhat", "localhost", "mumbai", "polygon"}, Names())
}

func TestAccountIndex(t *testing.T) {
	idx, err := AccountIndex("deployer")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = AccountIndex("account3")
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	idx, err = AccountIndex("7")
	require.NoError(t, err)
	assert.Equal(t, 7, idx)

	_, err = AccountIndex("player")
	assert.Error(t, err)
}
