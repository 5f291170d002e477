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
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Empty(t, cfg.App.LogLevel)
	assert.Equal(t, DefaultRPCURL, cfg.RPC.URL)
	assert.Equal(t, 30*time.Second, cfg.RPC.StepTimeout)
	assert.Equal(t, DefaultToAddress, cfg.Wallet.ToAddress)
	assert.Equal(t, DefaultAmount, cfg.Wallet.Amount)
	assert.Equal(t, uint64(21000), cfg.Gas.TransferLimit)
	assert.Equal(t, uint64(300000), cfg.Gas.ContractLimit)
	assert.Equal(t, uint64(0), cfg.Gas.FeeBufferPercent)
	assert.Equal(t, "local", cfg.Lock.Backend)
	assert.Equal(t, "none", cfg.Events.Sink)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "deadbeef")
	t.Setenv("TO_ADDRESS", "0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2")
	t.Setenv("AMOUNT", "0.5")
	t.Setenv("RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("GAS_CONTRACT_LIMIT", "250000")
	t.Setenv("CONFIRM_TIMEOUT", "45s")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
	assert.Equal(t, "0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2", cfg.Wallet.ToAddress)
	assert.Equal(t, "0.5", cfg.Wallet.Amount)
	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPC.URL)
	assert.Equal(t, uint64(250000), cfg.Gas.ContractLimit)
	assert.Equal(t, 45*time.Second, cfg.Confirm.Timeout)
	assert.Equal(t, "warn", cfg.App.LogLevel)
}

func TestLoadDotEnvIsLowestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PRIVATE_KEY=fromdotenv\nAMOUNT=0.002\nAPP_ENV=production\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("AMOUNT", "0.003")

	cfg, err := Load(Options{DotEnvFile: path})
	require.NoError(t, err)

	assert.Equal(t, "fromdotenv", cfg.Wallet.PrivateKey)
	assert.Equal(t, "0.003", cfg.Wallet.Amount, "real environment wins over .env")
	assert.Equal(t, "production", cfg.App.Env)
}

func TestLoadMissingDotEnvIgnored(t *testing.T) {
	_, err := Load(Options{DotEnvFile: filepath.Join(t.TempDir(), ".env")})
	assert.NoError(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "gas:\n  transfer_limit: 30000\nevents:\n  sink: kafka\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))

	cfg, err := Load(Options{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, uint64(30000), cfg.Gas.TransferLimit)
	assert.Equal(t, "kafka", cfg.Events.Sink)
}
