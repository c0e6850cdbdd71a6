package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"SwiftBackuper/internal/config"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Setup builds the process logger from cfg. verbose forces debug level.
func Setup(cfg *config.Config, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Logging.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		level = l
	}
	if cfg.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	var w io.Writer
	switch strings.ToLower(cfg.Logging.Format) {
	case FormatJSON:
		w = out
	case FormatConsole, "":
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q: must be %q or %q", cfg.Logging.Format, FormatConsole, FormatJSON)
	}

	if cfg.Logging.File != "" {
		fw, err := fileWriter(cfg.Logging)
		if err != nil {
			return zerolog.Nop(), err
		}
		w = zerolog.MultiLevelWriter(w, fw)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func fileWriter(lc config.LoggingConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(lc.File), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   true,
	}, nil
}
