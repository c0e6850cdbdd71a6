package config

import (
	"os"

	"github.com/spf13/viper"
)

const (
	ProviderOpenStack = "openstack"
	ProviderS3        = "s3"

	ArchiverBuiltin = "builtin"
	ArchiverTar     = "tar"
)

const (
	DefaultTmpPath           = "/tmp"
	DefaultKeepRelease       = 3
	DefaultCompressionLevel  = 6
	DefaultDeleteConcurrency = 4
	DefaultLockDir           = "/var/run/swiftbackuper"
	DefaultPartSizeMB        = 5
)

type Config struct {
	TmpPath           string               `mapstructure:"tmp_path" yaml:"tmp_path"`
	Verbose           bool                 `mapstructure:"verbose" yaml:"verbose"`
	KeepRelease       int                  `mapstructure:"keep_release" yaml:"keep_release"`
	Archiver          string               `mapstructure:"archiver" yaml:"archiver"`
	CompressionLevel  int                  `mapstructure:"compression_level" yaml:"compression_level"`
	DeleteConcurrency int                  `mapstructure:"delete_concurrency" yaml:"delete_concurrency"`
	LockDir           string               `mapstructure:"lock_dir" yaml:"lock_dir"`
	Storage           StorageConfig        `mapstructure:"storage" yaml:"storage"`
	Logging           LoggingConfig        `mapstructure:"logging" yaml:"logging"`
	Jobs              []JobConfig          `mapstructure:"jobs" yaml:"jobs,omitempty"`
	Notifications     *NotificationsConfig `mapstructure:"notifications" yaml:"notifications,omitempty"`
}

type StorageConfig struct {
	Provider           string `mapstructure:"provider" yaml:"provider"`
	Username           string `mapstructure:"username" yaml:"username"`
	Password           string `mapstructure:"password" yaml:"password"`
	AuthURL            string `mapstructure:"auth_url" yaml:"auth_url"`
	Container          string `mapstructure:"container" yaml:"container"`
	Region             string `mapstructure:"region" yaml:"region,omitempty"`
	TenantName         string `mapstructure:"tenant_name" yaml:"tenant_name,omitempty"`
	DomainName         string `mapstructure:"domain_name" yaml:"domain_name,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
	PathStyle          bool   `mapstructure:"path_style" yaml:"path_style"`
	PartSizeMB         int    `mapstructure:"part_size_mb" yaml:"part_size_mb,omitempty"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File, when set, receives a copy of every log line and is rotated by size.
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days,omitempty"`
}

type JobConfig struct {
	Name        string          `mapstructure:"name" yaml:"name"`
	Source      string          `mapstructure:"source" yaml:"source"`
	Enabled     bool            `mapstructure:"enabled" yaml:"enabled"`
	KeepRelease int             `mapstructure:"keep_release" yaml:"keep_release,omitempty"`
	Schedule    *ScheduleConfig `mapstructure:"schedule" yaml:"schedule,omitempty"`
}

type ScheduleConfig struct {
	Period        string `mapstructure:"period" yaml:"period"`
	Times         int    `mapstructure:"times" yaml:"times"`
	JitterMinutes int    `mapstructure:"jitter_minutes" yaml:"jitter_minutes"`
}

type NotificationsConfig struct {
	Discord *DiscordConfig `mapstructure:"discord" yaml:"discord,omitempty"`
}

type DiscordConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL     string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	Events         []string      `mapstructure:"events" yaml:"events,omitempty"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`
	MentionOnError string        `mapstructure:"mention_on_error" yaml:"mention_on_error,omitempty"`
	Retry          *DiscordRetry `mapstructure:"retry" yaml:"retry,omitempty"`
}

type DiscordRetry struct {
	Attempts  int `mapstructure:"attempts" yaml:"attempts"`
	BackoffMs int `mapstructure:"backoff_ms" yaml:"backoff_ms"`
}

// Default returns the built-in options that file and environment values are merged over.
func Default() Config {
	return Config{
		TmpPath:           DefaultTmpPath,
		KeepRelease:       DefaultKeepRelease,
		Archiver:          ArchiverBuiltin,
		CompressionLevel:  DefaultCompressionLevel,
		DeleteConcurrency: DefaultDeleteConcurrency,
		LockDir:           DefaultLockDir,
		Storage: StorageConfig{
			Provider:   ProviderOpenStack,
			PathStyle:  true,
			PartSizeMB: DefaultPartSizeMB,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// FindJob returns the job with the given name, or nil.
func (c *Config) FindJob(name string) *JobConfig {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i]
		}
	}
	return nil
}

// ForJob returns a copy of c with per-job overrides applied.
func (c Config) ForJob(job JobConfig) Config {
	out := c
	if job.KeepRelease != 0 {
		out.KeepRelease = job.KeepRelease
	}
	out.Jobs = nil
	return out
}

func NotificationsEnabled(n *NotificationsConfig) bool {
	return n != nil && n.Discord != nil && n.Discord.Enabled
}

func Unmarshal(v *viper.Viper) (*Config, error) {
	c := Default()
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if n := c.Notifications; n != nil && n.Discord != nil && n.Discord.WebhookURL == "" {
		n.Discord.WebhookURL = os.Getenv(EnvDiscordWebhookURL)
	}
	return &c, nil
}
