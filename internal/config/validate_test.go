package config

import (
	"errors"
	"testing"
)

func validRunConfig() *Config {
	cfg := Default()
	cfg.Storage.Username = "user"
	cfg.Storage.Password = "secret"
	cfg.Storage.AuthURL = "https://keystone.example.com/v3"
	cfg.Storage.Container = "backups"
	return &cfg
}

func TestValidateRun_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr error
	}{
		{"username", func(c *Config) { c.Storage.Username = "" }, "storage.username", ErrMissingUsername},
		{"password", func(c *Config) { c.Storage.Password = "" }, "storage.password", ErrMissingPassword},
		{"auth url", func(c *Config) { c.Storage.AuthURL = "" }, "storage.auth_url", ErrMissingAuthURL},
		{"container", func(c *Config) { c.Storage.Container = "" }, "storage.container", ErrMissingContainer},
		{"tmp path", func(c *Config) { c.TmpPath = "" }, "tmp_path", ErrMissingTmpPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(cfg)
			err := ValidateRun(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateRun = %v, want %v", err, tt.wantErr)
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestValidateRun_DistinctSentinels(t *testing.T) {
	sentinels := []error{ErrMissingUsername, ErrMissingPassword, ErrMissingAuthURL, ErrMissingContainer, ErrMissingTmpPath}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}

func TestValidateRun_Valid(t *testing.T) {
	if err := ValidateRun(validRunConfig()); err != nil {
		t.Errorf("ValidateRun: %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("Validate(nil) should return error")
	}
}

func TestValidate_NormalizesProviderAndArchiver(t *testing.T) {
	cfg := validRunConfig()
	cfg.Storage.Provider = " S3 "
	cfg.Archiver = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Storage.Provider != ProviderS3 {
		t.Errorf("provider = %q, want s3", cfg.Storage.Provider)
	}
	if cfg.Archiver != ArchiverBuiltin {
		t.Errorf("archiver = %q, want builtin", cfg.Archiver)
	}
}

func TestValidate_InvalidProvider(t *testing.T) {
	cfg := validRunConfig()
	cfg.Storage.Provider = "gcs"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestValidate_InvalidArchiver(t *testing.T) {
	cfg := validRunConfig()
	cfg.Archiver = "zip"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidArchiver) {
		t.Errorf("expected ErrInvalidArchiver, got %v", err)
	}
}

func TestValidate_Jobs(t *testing.T) {
	tests := []struct {
		name string
		jobs []JobConfig
		ok   bool
	}{
		{"valid", []JobConfig{{Name: "web", Source: "/var/www"}, {Name: "db", Source: "/srv/db"}}, true},
		{"missing name", []JobConfig{{Source: "/var/www"}}, false},
		{"missing source", []JobConfig{{Name: "web"}}, false},
		{"duplicate", []JobConfig{{Name: "web", Source: "/a"}, {Name: "web", Source: "/b"}}, false},
		{"separator", []JobConfig{{Name: "a/b", Source: "/a"}}, false},
		{"schedule ok", []JobConfig{{Name: "web", Source: "/a", Schedule: &ScheduleConfig{Period: "week", Times: 2}}}, true},
		{"schedule period", []JobConfig{{Name: "web", Source: "/a", Schedule: &ScheduleConfig{Period: "hourly", Times: 1}}}, false},
		{"schedule times", []JobConfig{{Name: "web", Source: "/a", Schedule: &ScheduleConfig{Period: "day", Times: 6}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			cfg.Jobs = tt.jobs
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidJob) {
				t.Errorf("expected ErrInvalidJob, got %v", err)
			}
		})
	}
}
