package cmd

import (
	"fmt"

	"settler/config"
	"settler/db"
	"settler/digest"
	"settler/directory"
	"settler/events"
	"settler/settlement"
	"settler/store"
	"settler/types"
)

// openEngine wires a settlement engine from the engine config file. The
// caller owns the returned provider and must Close it.
func openEngine(path string) (*settlement.Engine, types.Address, db.DatabaseProvider, error) {
	cfg, err := config.LoadEngineConfig(path)
	if err != nil {
		return nil, types.Address{}, nil, fmt.Errorf("load config: %w", err)
	}

	combiner, ok := digest.ForScheme(cfg.DigestScheme)
	if !ok {
		return nil, types.Address{}, nil, fmt.Errorf("unknown digest scheme %q", cfg.DigestScheme)
	}

	provider, err := store.CreateProvider(&cfg.Store)
	if err != nil {
		return nil, types.Address{}, nil, fmt.Errorf("open store: %w", err)
	}

	dir, err := directory.NewDirectory(provider)
	if err != nil {
		provider.Close()
		return nil, types.Address{}, nil, err
	}
	meta := store.NewGenericSettlementMetaStore(provider)

	bufferSize := 0
	if runtimePath != "" {
		runtimeCfg, err := config.LoadRuntimeConfig(runtimePath)
		if err != nil {
			provider.Close()
			return nil, types.Address{}, nil, fmt.Errorf("load runtime config: %w", err)
		}
		bufferSize = runtimeCfg.EventBufferSize
	}
	router := events.NewEventRouter(events.NewEventBusWithBuffer(bufferSize))

	system := cfg.SystemAddress()
	engine := settlement.NewEngine(dir, meta, router, combiner, system)
	return engine, system, provider, nil
}
