package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir  = "/etc/swiftbackuper"
	DefaultConfigName = "config.yaml"
)

const EnvConfigPath = "SWIFTBACKUPER_CONFIG"

// configPathOverride is set by the --config flag and wins over the environment.
var configPathOverride string

func SetConfigPath(path string) {
	configPathOverride = path
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir, DefaultConfigName)
}

func ResolveConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath()
}
