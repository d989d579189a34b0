package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon's runtime configuration.
type Config struct {
	// RPCAddress is the listen address for the JSON-RPC server.
	RPCAddress string `toml:"RPCAddress"`
	// DataDir is where the ledger database lives.
	DataDir string `toml:"DataDir"`
	// AssetDenom is the one fungible asset the pool accepts.
	AssetDenom string `toml:"AssetDenom"`
	// EpochGenesisUnix anchors epoch zero on the wall clock.
	EpochGenesisUnix int64 `toml:"EpochGenesisUnix"`
	// EpochLengthSeconds is the duration of one epoch.
	EpochLengthSeconds uint64 `toml:"EpochLengthSeconds"`
	// LogFile mirrors log output into a rotating file when set.
	LogFile string `toml:"LogFile"`
	// LogMaxSizeMB rotates the log file once it grows past this size.
	LogMaxSizeMB int `toml:"LogMaxSizeMB"`
	// LogMaxBackups bounds how many rotated log files are retained.
	LogMaxBackups int `toml:"LogMaxBackups"`
}

func defaultConfig() *Config {
	return &Config{
		RPCAddress:         "127.0.0.1:8545",
		DataDir:            "./lendingd-data",
		AssetDenom:         "reserve",
		EpochGenesisUnix:   0,
		EpochLengthSeconds: 60,
		LogMaxSizeMB:       64,
		LogMaxBackups:      4,
	}
}

// Load reads the configuration at path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	if strings.TrimSpace(c.AssetDenom) == "" {
		return fmt.Errorf("AssetDenom must not be empty")
	}
	if c.EpochLengthSeconds == 0 {
		return fmt.Errorf("EpochLengthSeconds must be greater than zero")
	}
	return nil
}
