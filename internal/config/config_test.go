package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hardhat", cfg.Network)
	assert.Equal(t, "artifacts", cfg.Paths.Artifacts)
	assert.Equal(t, "deployments", cfg.Paths.Deployments)
	assert.Equal(t, "https://api.etherscan.io/v2/api", cfg.Etherscan.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Etherscan.PollInterval)
	assert.True(t, cfg.GasReporter.Enabled)
	assert.Equal(t, "gas-report.txt", cfg.GasReporter.OutputFile)
	assert.False(t, cfg.FrontEnd.Enabled())
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRIVATE_KEY_ACC1", "0xabc")
	t.Setenv("GOERLI_RPC_URL", "https://goerli.example")
	t.Setenv("ETHERSCAN_API_KEY", "KEY")
	t.Setenv("UPDATE_FRONT_END", "true")
	t.Setenv("LOTTERY_NETWORK", "goerli")
	t.Setenv("LOTTERY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "goerli", cfg.Network)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0xabc", cfg.Accounts.PrivateKey1)
	assert.Equal(t, "KEY", cfg.Etherscan.APIKey)
	assert.True(t, cfg.FrontEnd.Enabled())

	ep := cfg.Endpoints()
	assert.Equal(t, "https://goerli.example", ep.RPCURLs["goerli"])
	assert.Equal(t, []string{"0xabc", "", "", ""}, ep.PrivateKeys)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"MUMBAI_RPC_URL=https://mumbai.example\nETHERSCAN_API_KEY=from-file\n",
	), 0o600))
	t.Setenv("ETHERSCAN_API_KEY", "from-env")
	t.Cleanup(func() { os.Unsetenv("MUMBAI_RPC_URL") })

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "https://mumbai.example", cfg.RPC.Mumbai)
	assert.Equal(t, "from-env", cfg.Etherscan.APIKey)
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestDatabaseURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "lottery", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/lottery?sslmode=disable", c.URL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=lottery sslmode=disable", c.DSN())
}

func TestLoadHistoryAndLockSwitches(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_ENABLED", "true")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadHistorySwitchWithPrefix(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOTTERY_DATABASE_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}
