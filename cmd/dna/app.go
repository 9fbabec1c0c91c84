package main

import (
	"context"
	"log/slog"

	"crimescape.app/dna/common/id"
	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/core/config"
	"crimescape.app/dna/internal/app"
)

func rulesFile(root *rootFlags) string {
	if root.rulesFile != "" {
		return root.rulesFile
	}
	return config.EngineFromEnv().RulesFile
}

// openApp loads CLI config, applying --rules, and connects to the stores.
func openApp(ctx context.Context, root *rootFlags) (*app.App, config.Config, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return nil, config.Config{}, err
	}
	if root.rulesFile != "" {
		cfg.Engine.RulesFile = root.rulesFile
	}
	logger.Setup(cfg)

	if err := id.Init(cfg.NodeID); err != nil {
		return nil, config.Config{}, err
	}
	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		return nil, config.Config{}, err
	}
	return a, cfg, nil
}
