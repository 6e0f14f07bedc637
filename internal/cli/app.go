package cli

import (
	"fmt"

	"form4qa/internal/config"
	"form4qa/internal/logger"
	"form4qa/internal/requirements"
	"form4qa/internal/service"
	"form4qa/internal/store"

	"go.uber.org/zap"
)

// app the wired components shared by every command
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *service.ProjectService
}

func newApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(level, cfg.Log.Format, "form4qa")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var st store.ProjectStore
	switch cfg.Store.Backend {
	case config.BackendMemory:
		st = store.NewMemoryStore()
	case config.BackendFile:
		fs, err := store.NewFileStore(cfg.Store.DataDir)
		if err != nil {
			return nil, err
		}
		st = fs
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	svc := service.NewProjectService(st, requirements.NewEngine(), log, service.Options{
		Defaults:  cfg.Testing,
		HeaderRow: &cfg.Ingest.HeaderRow,
	})
	return &app{cfg: cfg, logger: log, svc: svc}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
