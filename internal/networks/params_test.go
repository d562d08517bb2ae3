package networks

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

func TestTableIsComplete(t *testing.T) {
	require.NoError(t, Validate())

	for _, id := range ChainIDs() {
		p := Table[id]
		assert.NotEmpty(t, p.Name, "chain %d", id)
		assert.Equal(t, uint32(500000), p.CallbackGasLimit, "chain %d", id)
		assert.Equal(t, int64(30), p.KeepersUpdateInterval.Int64(), "chain %d", id)
	}
}

func TestChainIDsSorted(t *testing.T) {
	assert.Equal(t, []int64{1, 5, 137, 31337, 80001}, ChainIDs())
}

func TestParamsFor(t *testing.T) {
	p, err := ParamsFor(5)
	require.NoError(t, err)
	assert.Equal(t, "goerli", p.Name)
	assert.Equal(t, uint64(8243), p.SubscriptionID)
	assert.Equal(t, common.HexToAddress("0x2Ca8E0C643bDe4C2E08ab1fA0da3401AdAD7734D"), p.VRFCoordinatorV2)
	assert.Equal(t, "10000000000000000", p.EntranceFee.String())

	_, err = ParamsFor(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedNetwork))
}

func TestValidateReportsMissingField(t *testing.T) {
	p := Table[5]
	p.GasLane = common.Hash{}

	err := p.Validate(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingParameter))
	assert.Contains(t, err.Error(), "GasLane")
}

func TestValidateRequiresCoordinatorOffDevelopmentChain(t *testing.T) {
	p := Table[80001]
	p.VRFCoordinatorV2 = common.Address{}

	err := p.Validate(80001)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VRFCoordinatorV2")

	// The development entry has no coordinator; the mock supplies it.
	assert.NoError(t, Table[DevelopmentChainID].Validate(DevelopmentChainID))
}

func TestValidateRequiresEntranceFee(t *testing.T) {
	p := Table[1]
	p.EntranceFee = nil

	err := p.Validate(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EntranceFee")
}

func TestIsDevelopmentChain(t *testing.T) {
	assert.True(t, IsDevelopmentChain("hardhat"))
	assert.True(t, IsDevelopmentChain("localhost"))
	assert.False(t, IsDevelopmentChain("goerli"))
	assert.False(t, IsDevelopmentChain(""))
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.01", "10000000000000000"},
		{"0.25", "250000000000000000"},
		{"2", "2000000000000000000"},
		{"0.0001", "100000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseEther("abc")
	assert.Error(t, err)
	_, err = ParseEther("0.0000000000000000001")
	assert.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0.01", FormatEther(MustParseEther("0.01")))
	assert.Equal(t, "2", FormatEther(MustParseEther("2")))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0", FormatEther(nil))
}
