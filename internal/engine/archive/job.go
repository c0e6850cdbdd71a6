package archive

import (
	"errors"
	"path/filepath"
	"strings"

	"SwiftBackuper/internal/config"
)

var (
	ErrMissingName   = errors.New("invalid backup name")
	ErrMissingSource = errors.New("invalid backup source path")
)

// Job is one configured backup: a directory archived under a stable name.
type Job struct {
	Name       string
	SourcePath string
	Config     config.Config
}

// Artifact is the local archive produced for one run.
type Artifact struct {
	FileName  string
	LocalPath string
	SizeBytes int64
}

// NewJob validates cfg and resolves sourcePath. It performs no I/O.
func NewJob(sourcePath, name string, cfg config.Config) (*Job, error) {
	if err := config.ValidateRun(&cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, &config.ConfigurationError{Field: "name", Err: ErrMissingName}
	}
	if strings.TrimSpace(sourcePath) == "" {
		return nil, &config.ConfigurationError{Field: "source", Err: ErrMissingSource}
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "source", Err: err}
	}
	cfg.Jobs = nil
	return &Job{Name: name, SourcePath: abs, Config: cfg}, nil
}

func (j *Job) Keep() int {
	return config.EffectiveKeep(j.Config.KeepRelease)
}

func (j *Job) Container() string {
	return j.Config.Storage.Container
}
