// Package config provides configuration loading for the lottery deploy tooling.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nathanTypo/lottery-pc/internal/networks"
)

// Config holds all configuration for the tooling.
type Config struct {
	Network     string            `mapstructure:"network"`
	Accounts    AccountsConfig    `mapstructure:"accounts"`
	RPC         RPCConfig         `mapstructure:"rpc"`
	Etherscan   EtherscanConfig   `mapstructure:"etherscan"`
	Paths       PathsConfig       `mapstructure:"paths"`
	FrontEnd    FrontEndConfig    `mapstructure:"frontend"`
	GasReporter GasReporterConfig `mapstructure:"gas_reporter"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// AccountsConfig holds the live-network signing keys, in named account order.
type AccountsConfig struct {
	PrivateKey1 string `mapstructure:"private_key_1"`
	PrivateKey2 string `mapstructure:"private_key_2"`
	PrivateKey3 string `mapstructure:"private_key_3"`
	PrivateKey4 string `mapstructure:"private_key_4"`
}

// Keys returns the configured keys as deployer, account1, account2, account3.
func (c AccountsConfig) Keys() []string {
	return []string{c.PrivateKey1, c.PrivateKey2, c.PrivateKey3, c.PrivateKey4}
}

// RPCConfig holds the JSON-RPC endpoints of each network.
type RPCConfig struct {
	Localhost string `mapstructure:"localhost"`
	Goerli    string `mapstructure:"goerli"`
	Ethereum  string `mapstructure:"ethereum"`
	Mumbai    string `mapstructure:"mumbai"`
	Polygon   string `mapstructure:"polygon"`
}

// EtherscanConfig holds block-explorer verification settings.
type EtherscanConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	APIURL       string        `mapstructure:"api_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// PathsConfig holds on-disk locations.
type PathsConfig struct {
	Artifacts   string `mapstructure:"artifacts"`
	Deployments string `mapstructure:"deployments"`
}

// FrontEndConfig holds the sibling front-end export settings.
type FrontEndConfig struct {
	// Update is UPDATE_FRONT_END; any non-empty value enables the export.
	Update        string `mapstructure:"update"`
	AddressesFile string `mapstructure:"addresses_file"`
	ABIFile       string `mapstructure:"abi_file"`
}

// Enabled reports whether the front-end export step should run.
func (c FrontEndConfig) Enabled() bool {
	return c.Update != ""
}

// GasReporterConfig controls the per-method gas report.
type GasReporterConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputFile string `mapstructure:"output_file"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// DatabaseConfig holds PostgreSQL configuration for the deploy run history.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects it.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the deploy lock.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetricsConfig holds Prometheus Pushgateway settings.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Endpoints returns the values network definitions are resolved from.
func (c *Config) Endpoints() networks.Endpoints {
	return networks.Endpoints{
		RPCURLs: map[string]string{
			"localhost": c.RPC.Localhost,
			"goerli":    c.RPC.Goerli,
			"ethereum":  c.RPC.Ethereum,
			"mumbai":    c.RPC.Mumbai,
			"polygon":   c.RPC.Polygon,
		},
		PrivateKeys: c.Accounts.Keys(),
	}
}

// Load reads configuration from the .env file, an optional yaml file and environment
// variables. Variables already present in the environment win over the .env file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			return nil, err
		}
	}

	v := viper.New()

	v.SetConfigName("lottery")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("LOTTERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Unprefixed names, so existing .env files keep working.
	v.BindEnv("accounts.private_key_1", "PRIVATE_KEY_ACC1")
	v.BindEnv("accounts.private_key_2", "PRIVATE_KEY_ACC2")
	v.BindEnv("accounts.private_key_3", "PRIVATE_KEY_ACC3")
	v.BindEnv("accounts.private_key_4", "PRIVATE_KEY_ACC4")
	v.BindEnv("rpc.localhost", "LOCALHOST_RPC_URL")
	v.BindEnv("rpc.goerli", "GOERLI_RPC_URL")
	v.BindEnv("rpc.ethereum", "ETHEREUM_RPC_URL")
	v.BindEnv("rpc.mumbai", "MUMBAI_RPC_URL")
	v.BindEnv("rpc.polygon", "POLYGON_RPC_URL")
	v.BindEnv("etherscan.api_key", "ETHERSCAN_API_KEY")
	v.BindEnv("frontend.update", "UPDATE_FRONT_END")
	v.BindEnv("database.enabled", "LOTTERY_DATABASE_ENABLED", "DATABASE_ENABLED")
	v.BindEnv("redis.enabled", "LOTTERY_REDIS_ENABLED", "REDIS_ENABLED")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the KEY=VALUE pairs of a .env file into the process environment
// without overriding variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "hardhat")

	// Etherscan defaults
	v.SetDefault("etherscan.api_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("etherscan.poll_interval", "5s")
	v.SetDefault("etherscan.max_attempts", 20)

	// Paths defaults
	v.SetDefault("paths.artifacts", "artifacts")
	v.SetDefault("paths.deployments", "deployments")

	// Front-end defaults
	v.SetDefault("frontend.addresses_file", "../hh_06_hardhat-smartcontract-lottery-frontend-nextjs/constants/contractAdresses.json")
	v.SetDefault("frontend.abi_file", "../hh_06_hardhat-smartcontract-lottery-frontend-nextjs/constants/abi.json")

	// Gas reporter defaults
	v.SetDefault("gas_reporter.enabled", true)
	v.SetDefault("gas_reporter.output_file", "gas-report.txt")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lottery")
	v.SetDefault("database.password", "lottery")
	v.SetDefault("database.database", "lottery")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "10m")

	// Metrics defaults
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "lottery_deploy")
}
