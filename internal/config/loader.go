package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SWIFTBACKUPER"

// EnvDiscordWebhookURL fills notifications.discord.webhook_url when the file leaves it empty.
const EnvDiscordWebhookURL = EnvPrefix + "_DISCORD_WEBHOOK_URL"

// Credential fallbacks read when the config file leaves a storage field unset.
const (
	EnvOpenStackUsername   = "OPENSTACK_USERNAME"
	EnvOpenStackPassword   = "OPENSTACK_PASSWORD"
	EnvOpenStackAuthURL    = "OPENSTACK_AUTH_URL"
	EnvOpenStackTenantName = "OPENSTACK_TENANT_NAME"
	EnvOpenStackDomainName = "OPENSTACK_DOMAIN_NAME"
)

// Load reads the config file at ResolveConfigPath. A missing file is an error.
func Load(checkPerms bool) (*viper.Viper, error) {
	return load(ResolveConfigPath(), checkPerms, true, os.Getenv)
}

// LoadOptional is Load for commands that can run from flags and environment alone.
func LoadOptional() (*viper.Viper, error) {
	return load(ResolveConfigPath(), false, false, os.Getenv)
}

func load(path string, checkPerms, requireFile bool, getenv func(string) string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, getenv)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if checkPerms {
		if err := checkConfigPermissions(path); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		switch {
		case missing && requireFile:
			return nil, fmt.Errorf("config file not found: %s", path)
		case !missing:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// authUrl is the historical spelling of auth_url.
	if !v.InConfig("storage.auth_url") && v.InConfig("storage.authurl") {
		v.Set("storage.auth_url", v.GetString("storage.authurl"))
	}

	return v, nil
}

func setDefaults(v *viper.Viper, getenv func(string) string) {
	d := Default()
	v.SetDefault("tmp_path", d.TmpPath)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("keep_release", d.KeepRelease)
	v.SetDefault("archiver", d.Archiver)
	v.SetDefault("compression_level", d.CompressionLevel)
	v.SetDefault("delete_concurrency", d.DeleteConcurrency)
	v.SetDefault("lock_dir", d.LockDir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.path_style", d.Storage.PathStyle)
	v.SetDefault("storage.part_size_mb", d.Storage.PartSizeMB)
	v.SetDefault("storage.container", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.insecure_skip_verify", false)
	v.SetDefault("storage.username", getenv(EnvOpenStackUsername))
	v.SetDefault("storage.password", getenv(EnvOpenStackPassword))
	v.SetDefault("storage.auth_url", getenv(EnvOpenStackAuthURL))
	v.SetDefault("storage.tenant_name", getenv(EnvOpenStackTenantName))
	v.SetDefault("storage.domain_name", getenv(EnvOpenStackDomainName))
}

func checkConfigPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	mode := info.Mode().Perm()

	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %s (recommended: 0600)", path, mode)
	}
	return nil
}
