package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[genesis]
Authority = "0x00000000000000000000000000000000000000AD"
MinScoreToBorrow = 600
DepositLockSeconds = 86400
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8545", cfg.RPCAddress)
	require.Equal(t, "./credpool-data", cfg.DataDir)
	require.Equal(t, "local", cfg.Environment)
	require.Equal(t, 50.0, cfg.RateLimitPerSecond)
	require.Equal(t, 100, cfg.RateLimitBurst)
	require.Equal(t, uint64(600), cfg.Genesis.MinScoreToBorrow)
	require.Equal(t, uint64(86400), cfg.Genesis.DepositLockSeconds)

	authority, err := cfg.AuthorityAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0xAD), authority[19])

	oracle, err := cfg.OracleAddress()
	require.NoError(t, err)
	require.Equal(t, [20]byte{}, oracle)
}

func TestLoadRejectsMissingAuthority(t *testing.T) {
	path := writeConfig(t, `
RPCAddress = ":9000"
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Authority")
}

func TestLoadRejectsMalformedAddresses(t *testing.T) {
	path := writeConfig(t, `
[genesis]
Authority = "not-an-address"
`)
	_, err := Load(path)
	require.Error(t, err)

	path = writeConfig(t, `
[genesis]
Authority = "0x00000000000000000000000000000000000000AD"
OracleAddress = "bogus"
`)
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "CREDPOOL_ADMIN_SECRET", cfg.AdminSecretEnv)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, reloaded.RPCAddress)
}

func TestAdminSecretFromEnvironment(t *testing.T) {
	cfg := &Config{AdminSecretEnv: "CREDPOOL_TEST_SECRET"}

	_, err := cfg.AdminSecret()
	require.Error(t, err)

	t.Setenv("CREDPOOL_TEST_SECRET", "swordfish")
	secret, err := cfg.AdminSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("swordfish"), secret)
}
