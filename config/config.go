package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"settler/types"
)

// LoadEngineConfig reads and parses the engine.yml file
func LoadEngineConfig(path string) (*EngineConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, err
	}
	if err := cfgFile.Config.Validate(); err != nil {
		return nil, err
	}
	return &cfgFile.Config, nil
}

// Validate checks the engine configuration for completeness
func (c *EngineConfig) Validate() error {
	if _, err := types.AddressFromHex(c.SystemIdentity); err != nil {
		return fmt.Errorf("invalid system_identity: %w", err)
	}
	return c.Store.Validate()
}

// SystemAddress returns the configured system identity as an address.
// Validate must have passed first.
func (c *EngineConfig) SystemAddress() types.Address {
	addr, _ := types.AddressFromHex(c.SystemIdentity)
	return addr
}

type RuntimeConfig struct {
	EventBufferSize int `ini:"event_buffer_size"`
}

// LoadRuntimeConfig reads runtime tuning from an .ini file
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	runtimeSection := cfg.Section("runtime")
	runtimeCfg := &RuntimeConfig{}
	if err := runtimeSection.MapTo(runtimeCfg); err != nil {
		return nil, err
	}
	return runtimeCfg, nil
}
