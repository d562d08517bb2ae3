package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanTypo/lottery-pc/internal/networks"
)

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var buf bytes.Buffer
	stdout = &buf
	rootCmd.SetArgs(args)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		stdout = os.Stdout
		jsonOut = false
		networkFlag = ""
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestNetworksJSON(t *testing.T) {
	out, err := execute(t, "networks", "--json")
	require.NoError(t, err)

	var rows []networkRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, len(networks.Table))

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ChainID
	}
	assert.Equal(t, networks.ChainIDs(), ids)

	for _, r := range rows {
		if r.ChainID == networks.DevelopmentChainID {
			assert.Equal(t, "mock", r.VRFCoordinator)
			assert.Equal(t, "created on deploy", r.SubscriptionID)
			assert.Equal(t, "0.01", r.EntranceFee)
		}
	}
}

func TestNetworksTable(t *testing.T) {
	out, err := execute(t, "networks")
	require.NoError(t, err)
	assert.Contains(t, out, "CHAIN ID")
	assert.Contains(t, out, "goerli")
	assert.Contains(t, out, "created on deploy")
	assert.False(t, json.Valid([]byte(out)))
}

func TestIncreaseTimeJSON(t *testing.T) {
	out, err := execute(t, "increase-time", "30", "--network", "hardhat", "--json")
	require.NoError(t, err)

	var got map[string]uint64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, uint64(30), got["advancedSeconds"])
}

func TestIncreaseTimeRejectsBadInput(t *testing.T) {
	_, err := execute(t, "increase-time", "soon", "--network", "hardhat")
	assert.ErrorContains(t, err, `invalid seconds "soon"`)
}

func TestVerifyRefusedOnDevelopmentChain(t *testing.T) {
	out, err := execute(t, "verify", "Lottery", "--network", "hardhat", "--json")
	assert.ErrorContains(t, err, "no block explorer")
	assert.Empty(t, out)
}
