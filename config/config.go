package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	Environment string `toml:"Environment"`

	LogFile       string `toml:"LogFile,omitempty"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB,omitempty"`
	LogMaxBackups int    `toml:"LogMaxBackups,omitempty"`
	LogMaxAgeDays int    `toml:"LogMaxAgeDays,omitempty"`

	// AdminSecretEnv names the environment variable holding the HMAC secret
	// for admin tokens. The secret itself never lives in the config file.
	AdminSecretEnv string `toml:"AdminSecretEnv"`

	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`

	Genesis Genesis `toml:"genesis"`
}

// Genesis seeds the policy record on first boot. An already-initialised data
// directory ignores these values.
type Genesis struct {
	Authority          string `toml:"Authority"`
	OracleAddress      string `toml:"OracleAddress,omitempty"`
	MinScoreToBorrow   uint64 `toml:"MinScoreToBorrow"`
	DepositLockSeconds uint64 `toml:"DepositLockSeconds"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./credpool-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.RateLimitPerSecond <= 0 {
		c.RateLimitPerSecond = 50
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 100
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups <= 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays <= 0 {
		c.LogMaxAgeDays = 28
	}
}

// Validate checks the fields a running node cannot do without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Genesis.Authority) == "" {
		return fmt.Errorf("config: genesis Authority is required")
	}
	if !common.IsHexAddress(c.Genesis.Authority) {
		return fmt.Errorf("config: genesis Authority %q is not a hex address", c.Genesis.Authority)
	}
	if oracle := strings.TrimSpace(c.Genesis.OracleAddress); oracle != "" && !common.IsHexAddress(oracle) {
		return fmt.Errorf("config: genesis OracleAddress %q is not a hex address", oracle)
	}
	return nil
}

// AuthorityAddress parses the configured admin address.
func (c *Config) AuthorityAddress() ([20]byte, error) {
	if !common.IsHexAddress(c.Genesis.Authority) {
		return [20]byte{}, fmt.Errorf("config: genesis Authority %q is not a hex address", c.Genesis.Authority)
	}
	return common.HexToAddress(c.Genesis.Authority), nil
}

// OracleAddress parses the configured oracle address. An empty value yields
// the zero address, which disables credential gating.
func (c *Config) OracleAddress() ([20]byte, error) {
	oracle := strings.TrimSpace(c.Genesis.OracleAddress)
	if oracle == "" {
		return [20]byte{}, nil
	}
	if !common.IsHexAddress(oracle) {
		return [20]byte{}, fmt.Errorf("config: genesis OracleAddress %q is not a hex address", oracle)
	}
	return common.HexToAddress(oracle), nil
}

// AdminSecret resolves the admin token secret from the configured environment
// variable.
func (c *Config) AdminSecret() ([]byte, error) {
	name := strings.TrimSpace(c.AdminSecretEnv)
	if name == "" {
		return nil, fmt.Errorf("config: AdminSecretEnv is not set")
	}
	secret := strings.TrimSpace(os.Getenv(name))
	if secret == "" {
		return nil, fmt.Errorf("config: environment variable %s holds no admin secret", name)
	}
	return []byte(secret), nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:         ":8545",
		DataDir:            "./credpool-data",
		Environment:        "local",
		AdminSecretEnv:     "CREDPOOL_ADMIN_SECRET",
		RateLimitPerSecond: 50,
		RateLimitBurst:     100,
		LogMaxSizeMB:       100,
		LogMaxBackups:      3,
		LogMaxAgeDays:      28,
		Genesis: Genesis{
			Authority:          common.Address{}.Hex(),
			MinScoreToBorrow:   0,
			DepositLockSeconds: 0,
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
