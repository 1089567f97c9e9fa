package config

import "settler/store"

// EngineConfig holds the configuration from engine.yml
type EngineConfig struct {
	SystemIdentity string            `yaml:"system_identity"`
	DigestScheme   string            `yaml:"digest_scheme"`
	Store          store.StoreConfig `yaml:"store"`
}

// ConfigFile is the top-level structure for engine.yml
type ConfigFile struct {
	Config EngineConfig `yaml:"config"`
}
