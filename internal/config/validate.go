package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingUsername  = errors.New("invalid storage username")
	ErrMissingPassword  = errors.New("invalid storage password")
	ErrMissingAuthURL   = errors.New("invalid storage auth url")
	ErrMissingContainer = errors.New("invalid storage container")
	ErrMissingTmpPath   = errors.New("invalid tmp path")

	ErrInvalidProvider = errors.New("invalid storage provider: must be 'openstack' or 's3'")
	ErrInvalidArchiver = errors.New("invalid archiver: must be 'builtin' or 'tar'")
	ErrInvalidJob      = errors.New("invalid job")
)

// ConfigurationError reports a setting that prevents a backup from being constructed.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) error {
	return &ConfigurationError{Field: field, Err: err}
}

// ValidateRun checks the settings every backup run depends on. It performs no I/O.
func ValidateRun(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	s := cfg.Storage
	switch {
	case s.Username == "":
		return fieldError("storage.username", ErrMissingUsername)
	case s.Password == "":
		return fieldError("storage.password", ErrMissingPassword)
	case s.AuthURL == "":
		return fieldError("storage.auth_url", ErrMissingAuthURL)
	case s.Container == "":
		return fieldError("storage.container", ErrMissingContainer)
	case cfg.TmpPath == "":
		return fieldError("tmp_path", ErrMissingTmpPath)
	}
	return nil
}

// Validate normalizes cfg in place and checks the whole file, jobs included.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	cfg.Storage.Provider = strings.ToLower(strings.TrimSpace(cfg.Storage.Provider))
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = ProviderOpenStack
	}
	cfg.Archiver = strings.ToLower(strings.TrimSpace(cfg.Archiver))
	if cfg.Archiver == "" {
		cfg.Archiver = ArchiverBuiltin
	}

	if err := ValidateRun(cfg); err != nil {
		return err
	}

	switch cfg.Storage.Provider {
	case ProviderOpenStack, ProviderS3:
	default:
		return fieldError("storage.provider", fmt.Errorf("%w: got %q", ErrInvalidProvider, cfg.Storage.Provider))
	}
	switch cfg.Archiver {
	case ArchiverBuiltin, ArchiverTar:
	default:
		return fieldError("archiver", fmt.Errorf("%w: got %q", ErrInvalidArchiver, cfg.Archiver))
	}

	seen := make(map[string]struct{}, len(cfg.Jobs))
	for i, j := range cfg.Jobs {
		field := fmt.Sprintf("jobs[%d]", i)
		if j.Name == "" {
			return fieldError(field+".name", fmt.Errorf("%w: name is required", ErrInvalidJob))
		}
		if strings.ContainsAny(j.Name, "/\\") {
			return fieldError(field+".name", fmt.Errorf("%w: name %q must not contain path separators", ErrInvalidJob, j.Name))
		}
		if _, dup := seen[j.Name]; dup {
			return fieldError(field+".name", fmt.Errorf("%w: duplicate name %q", ErrInvalidJob, j.Name))
		}
		seen[j.Name] = struct{}{}
		if j.Source == "" {
			return fieldError(field+".source", fmt.Errorf("%w: source is required for %q", ErrInvalidJob, j.Name))
		}
		if sc := j.Schedule; sc != nil {
			switch sc.Period {
			case "", "day", "week", "month":
			default:
				return fieldError(field+".schedule.period", fmt.Errorf("%w: period %q must be day, week or month", ErrInvalidJob, sc.Period))
			}
			if sc.Times < 1 || sc.Times > 5 {
				return fieldError(field+".schedule.times", fmt.Errorf("%w: times %d must be between 1 and 5", ErrInvalidJob, sc.Times))
			}
			if sc.JitterMinutes < 0 {
				return fieldError(field+".schedule.jitter_minutes", fmt.Errorf("%w: jitter_minutes must not be negative", ErrInvalidJob))
			}
		}
	}
	return nil
}
