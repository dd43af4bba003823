package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/command"
	"github.com/quyk67uet/ai-assistant-workflow/internal/config"
	"github.com/quyk67uet/ai-assistant-workflow/internal/executor"
	"github.com/quyk67uet/ai-assistant-workflow/internal/interpret"
	"github.com/quyk67uet/ai-assistant-workflow/internal/logging"
	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
	"github.com/quyk67uet/ai-assistant-workflow/internal/session"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
	"github.com/quyk67uet/ai-assistant-workflow/internal/tools"
)

// runtime holds everything a command needs after wiring.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	svc    *command.Service
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// buildRuntime wires the full command pipeline from configuration.
func buildRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Debug)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	apiKey := cfg.GetAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("no planner API key: set %s", cfg.LLM.APIKeyEnv)
	}
	planner, err := interpret.NewGeminiPlanner(ctx, apiKey, cfg.LLM.Model, logger)
	if err != nil {
		return nil, err
	}

	reg := tools.NewRegistry(st, logger)
	res := roster.NewTuned(st, cfg.Resolver.Threshold, cfg.Resolver.TieMargin, logger)
	interp := interpret.New(planner, reg, res, st, cfg.Timeout(), logger)
	exec := executor.New(reg, logger)

	var sessions *session.Manager
	if cfg.Sessions.Enabled {
		files, err := session.NewFileStore(cfg.Sessions.Dir)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		sessions = session.NewManager(files)
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  st,
		svc:    command.NewService(interp, exec, sessions, logger),
	}, nil
}
