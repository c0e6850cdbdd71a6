package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"SwiftBackuper/internal/archiver"
	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/engine"
	archiveEngine "SwiftBackuper/internal/engine/archive"
	"SwiftBackuper/internal/logging"
	"SwiftBackuper/internal/provider"
)

// loadConfig reads, decodes and validates the config file.
func loadConfig(requireFile bool) (*config.Config, error) {
	var (
		v   *viper.Viper
		err error
	)
	if requireFile {
		v, err = config.Load(false)
	} else {
		v, err = config.LoadOptional()
	}
	if err != nil {
		return nil, err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		return nil, err
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logging.Setup(cfg, os.Stderr)
}

// newOrchestrator wires a job to the configured archiver and blob store.
func newOrchestrator(ctx context.Context, cfg *config.Config, name, source string, log zerolog.Logger, opts ...archiveEngine.Option) (engine.Engine, error) {
	job, err := archiveEngine.NewJob(source, name, *cfg)
	if err != nil {
		return nil, err
	}
	if msg := config.KeepWarning(job.Config.KeepRelease); msg != "" {
		log.Warn().Str("job", name).Int("keep_release", job.Config.KeepRelease).Msg(msg)
	}
	a, err := archiver.New(cfg.Archiver, cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}
	store, err := provider.NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	opts = append([]archiveEngine.Option{archiveEngine.WithLogger(log)}, opts...)
	return archiveEngine.New(job, a, store, opts...), nil
}

// jobOrchestrator builds the orchestrator for a configured job, with its overrides applied.
func jobOrchestrator(ctx context.Context, cfg *config.Config, name string, log zerolog.Logger, opts ...archiveEngine.Option) (engine.Engine, error) {
	job := cfg.FindJob(name)
	if job == nil {
		return nil, fmt.Errorf("job %q not found", name)
	}
	jobCfg := cfg.ForJob(*job)
	return newOrchestrator(ctx, &jobCfg, job.Name, job.Source, log, opts...)
}

// concurrencyOption overrides delete_concurrency when n is positive.
func concurrencyOption(n int) []archiveEngine.Option {
	if n <= 0 {
		return nil
	}
	return []archiveEngine.Option{archiveEngine.WithConcurrency(n)}
}
