// Package main is the entry point for the viewmap tool: it loads a scene,
// builds its view map and prints a YAML summary of the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/config"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/pipeline"
	"github.com/Faultbox/viewmap/internal/progress"
	"github.com/Faultbox/viewmap/internal/scene"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Debug("config loaded", zap.Any("config", cfg))

	if path := config.SaveConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			logger.Error("failed to save config", zap.String("path", path), zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("path", path))
	}

	if err := run(os.Stdout, cfg, config.ScenePath()); err != nil {
		logger.Error("view map failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(w io.Writer, cfg *config.Config, scenePath string) error {
	if scenePath == "" {
		return errors.New("no scene given, use --scene or pass a path")
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}

	sc, err := scene.Load(scenePath)
	if err != nil {
		return err
	}
	shapes, proj, err := sc.Build()
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}
	logger.Info("scene loaded", zap.String("path", scenePath), zap.Int("shapes", len(shapes)))

	// Ctrl-C cancels the build at the next checkpoint.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := pipeline.NewBuilder(opts, proj)
	b.SetProgress(progress.NewLogReporter(logger.Named("progress")))
	b.SetCancel(func() bool { return ctx.Err() != nil })

	res, err := b.Build(shapes)
	if err != nil {
		return err
	}
	for _, w := range multierr.Errors(res.Warnings) {
		logger.Warn("stage warning", zap.Error(w))
	}
	if res.Canceled {
		logger.Warn("build canceled, summary is partial", zap.String("stage", res.Stage))
	}

	return writeSummary(w, summarize(scenePath, res))
}
