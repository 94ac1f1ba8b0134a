// Package config loads toolkit configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// RPCURL is the ethereum node endpoint. Websocket endpoints are
	// required for watch mode.
	RPCURL string `yaml:"rpc_url" env:"DAOKIT_RPC_URL"`
	// Network is a human label stored alongside deployment records.
	Network string `yaml:"network" env:"DAOKIT_NETWORK"`
	// FactoryAddress selects the atomic factory path when set; leave
	// empty to deploy step by step from artifacts.
	FactoryAddress string `yaml:"factory_address" env:"DAOKIT_FACTORY_ADDRESS"`
	// ArtifactsDir holds compiled contract JSON for the step path.
	ArtifactsDir string `yaml:"artifacts_dir" env:"DAOKIT_ARTIFACTS_DIR"`
	// PrivateKey is the hex-encoded deployer key.
	PrivateKey string `yaml:"private_key" env:"DAOKIT_PRIVATE_KEY"`

	DatabasePath string `yaml:"database_path" env:"DAOKIT_DATABASE_PATH"`
	ListenAddr   string `yaml:"listen_addr" env:"DAOKIT_LISTEN_ADDR"`
	// GasLimit caps per-transaction gas in the step path; zero lets
	// the node estimate.
	GasLimit uint64 `yaml:"gas_limit" env:"DAOKIT_GAS_LIMIT"`
}

func Default() *Config {
	return &Config{
		Network:      "local",
		RPCURL:       "ws://127.0.0.1:8545",
		DatabasePath: "daokit.db",
		ListenAddr:   ":8080",
	}
}

// Load reads the YAML file at path (optional: an empty path skips the
// file) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if c.FactoryAddress != "" && !common.IsHexAddress(c.FactoryAddress) {
		return fmt.Errorf("factory_address %q is not a hex address", c.FactoryAddress)
	}
	if c.FactoryAddress == "" && c.ArtifactsDir == "" {
		return errors.New("either factory_address or artifacts_dir is required")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	return nil
}

// Factory returns the configured factory address, or false when the
// toolkit should use the step path.
func (c *Config) Factory() (common.Address, bool) {
	if c.FactoryAddress == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.FactoryAddress), true
}
