package deploy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanTypo/lottery-pc/internal/artifacts"
	"github.com/nathanTypo/lottery-pc/internal/chain"
	"github.com/nathanTypo/lottery-pc/internal/chain/devchain"
	"github.com/nathanTypo/lottery-pc/internal/deployments"
	"github.com/nathanTypo/lottery-pc/internal/networks"
	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// storeOne copies a one-byte runtime (STOP) into place; constructor arguments are ignored.
const storeOneInitCode = "0x6001600c60003960016000f300"

type staticArtifacts map[string]*artifacts.Artifact

func (s staticArtifacts) Load(name string) (*artifacts.Artifact, error) {
	a, ok := s[name]
	if !ok {
		return nil, apperrors.NewArtifactNotFoundError(name, "memory")
	}
	return a, nil
}

func testArtifacts(t *testing.T) staticArtifacts {
	t.Helper()
	a, err := artifacts.Parse([]byte(`{
		"contractName": "Counter",
		"abi": [{"inputs":[{"name":"start","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"}],
		"bytecode": "` + storeOneInitCode + `"
	}`))
	require.NoError(t, err)
	return staticArtifacts{"Counter": a}
}

func testDeployer(t *testing.T) (*ArtifactDeployer, deployments.Store, *devchain.Chain) {
	t.Helper()

	dev, err := devchain.New(networks.DevelopmentChainID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	accounts, err := chain.NewDevAccounts(networks.DevelopmentChainID)
	require.NoError(t, err)
	signer, err := accounts.Named("deployer")
	require.NoError(t, err)

	store := deployments.NewMemoryStore("hardhat")
	sender := chain.NewSender(dev, signer)
	return NewArtifactDeployer(testArtifacts(t), store, sender, networks.DevelopmentChainID, nil), store, dev
}

func TestArtifactDeployerDeploysAndRecords(t *testing.T) {
	ctx := context.Background()
	d, store, dev := testDeployer(t)

	rec, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(42)}})
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, rec.Address)
	assert.Equal(t, networks.DevelopmentChainID, rec.ChainID)
	assert.Equal(t, []any{"42"}, rec.Args)
	assert.Equal(t, crypto.Keccak256Hash(common.FromHex(storeOneInitCode)), rec.BytecodeHash)
	assert.NotZero(t, rec.GasUsed)

	code, err := dev.CodeAt(ctx, rec.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, code)

	stored, err := store.Get("Counter")
	require.NoError(t, err)
	assert.Equal(t, rec.Address, stored.Address)
	assert.Equal(t, rec.ArgsData, stored.ArgsData)
}

func TestArtifactDeployerReusesIdenticalDeployment(t *testing.T) {
	ctx := context.Background()
	d, _, _ := testDeployer(t)

	first, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(1)}})
	require.NoError(t, err)

	again, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(1)}})
	require.NoError(t, err)
	assert.Equal(t, first.Address, again.Address)
	assert.Equal(t, first.TransactionHash, again.TransactionHash)

	changed, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(2)}})
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, changed.Address)
}

func TestArtifactDeployerRedeploysAfterReset(t *testing.T) {
	ctx := context.Background()
	d, store, _ := testDeployer(t)

	first, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(1)}})
	require.NoError(t, err)

	require.NoError(t, store.Reset())

	second, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(1)}})
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, second.Address)
}

func TestArtifactDeployerRedeploysWhenCodeMissing(t *testing.T) {
	ctx := context.Background()
	d, store, _ := testDeployer(t)

	first, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(1)}})
	require.NoError(t, err)

	// A record left over from a previous chain instance.
	stale := *first
	stale.Address = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	require.NoError(t, store.Save("Counter", &stale))

	again, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(1)}})
	require.NoError(t, err)
	assert.NotEqual(t, stale.Address, again.Address)
}

func TestArtifactDeployerErrors(t *testing.T) {
	ctx := context.Background()
	d, _, _ := testDeployer(t)

	_, err := d.Deploy(ctx, "Missing", DeployOptions{})
	assert.ErrorIs(t, err, apperrors.ErrArtifactNotFound)

	_, err = d.Deploy(ctx, "Counter", DeployOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes 1 arguments")
}

func TestJSONArgs(t *testing.T) {
	var lane [32]byte
	lane[31] = 1
	out := jsonArgs([]any{
		common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		big.NewInt(10),
		lane,
		uint64(3),
	})
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", out[0])
	assert.Equal(t, "10", out[1])
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", out[2])
	assert.Equal(t, uint64(3), out[3])
}

// logRecords decodes the JSON lines a slog.JSONHandler wrote.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	return records
}

func TestArtifactDeployerLogsStructuredAttrs(t *testing.T) {
	ctx := context.Background()
	d, _, _ := testDeployer(t)
	var buf bytes.Buffer
	d.logger = slog.New(slog.NewJSONHandler(&buf, nil))

	rec, err := d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(7)}})
	require.NoError(t, err)
	_, err = d.Deploy(ctx, "Counter", DeployOptions{Args: []any{big.NewInt(7)}})
	require.NoError(t, err)

	records := logRecords(t, &buf)
	require.Len(t, records, 2)

	assert.Equal(t, "deployed", records[0]["msg"])
	assert.Equal(t, "Counter", records[0]["contract"])
	assert.Equal(t, rec.Address.Hex(), records[0]["address"])
	assert.Equal(t, rec.TransactionHash.Hex(), records[0]["tx_hash"])
	assert.EqualValues(t, rec.GasUsed, records[0]["gas_used"])

	assert.Equal(t, "reusing deployment", records[1]["msg"])
	assert.Equal(t, rec.Address.Hex(), records[1]["address"])
}
