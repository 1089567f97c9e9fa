package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// BalanceSettlement is one balance instruction inside a batch file
type BalanceSettlement struct {
	Owner string `yaml:"owner"`
	Type  string `yaml:"type"`
	Merge string `yaml:"merge"`
	Split string `yaml:"split"`
}

// StreamSettlement is one event-stream instruction inside a batch file
type StreamSettlement struct {
	Stream        string `yaml:"stream"`
	Root          string `yaml:"root"`
	EventCount    uint64 `yaml:"event_count"`
	CheckpointSeq uint64 `yaml:"checkpoint_seq"`
}

// BatchConfig describes a full settlement batch to replay
type BatchConfig struct {
	Epoch            uint64              `yaml:"epoch"`
	CheckpointHeight uint64              `yaml:"checkpoint_height"`
	Idx              uint64              `yaml:"idx"`
	InputTotal       string              `yaml:"input_total"`
	OutputTotal      string              `yaml:"output_total"`
	Balances         []BalanceSettlement `yaml:"balances"`
	Streams          []StreamSettlement  `yaml:"streams"`
}

// BatchFile is the top-level structure for a batch yml
type BatchFile struct {
	Batch BatchConfig `yaml:"batch"`
}

// LoadBatchConfig reads and parses a settlement batch file
func LoadBatchConfig(path string) (*BatchConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var batchFile BatchFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&batchFile); err != nil {
		return nil, err
	}
	return &batchFile.Batch, nil
}
