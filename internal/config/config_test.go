package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daokit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Network)
	assert.Equal(t, "daokit.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
rpc_url: ws://geth:8546
network: sepolia
factory_address: "0x00000000000000000000000000000000000000AA"
database_path: /var/lib/daokit/daokit.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://geth:8546", cfg.RPCURL)
	assert.Equal(t, "sepolia", cfg.Network)
	require.NoError(t, cfg.Validate())

	addr, ok := cfg.Factory()
	require.True(t, ok)
	assert.Equal(t, "0x00000000000000000000000000000000000000AA", addr.Hex())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "network: sepolia\n")
	t.Setenv("DAOKIT_NETWORK", "mainnet")
	t.Setenv("DAOKIT_GAS_LIMIT", "4000000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, uint64(4000000), cfg.GasLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	// Defaults carry neither a factory nor artifacts.
	assert.Error(t, cfg.Validate())

	cfg.ArtifactsDir = "build/artifacts"
	assert.NoError(t, cfg.Validate())

	cfg.FactoryAddress = "not-an-address"
	assert.Error(t, cfg.Validate())

	cfg.FactoryAddress = "0x00000000000000000000000000000000000000AA"
	assert.NoError(t, cfg.Validate())

	cfg.RPCURL = ""
	assert.Error(t, cfg.Validate())
}

func TestFactoryUnsetOnStepPath(t *testing.T) {
	cfg := Default()
	_, ok := cfg.Factory()
	assert.False(t, ok)
}
