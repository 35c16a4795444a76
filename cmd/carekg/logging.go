// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/carekg/pkg/types"
)

const (
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
)

func init() {
	rootCmd.PersistentFlags().Int("log-max-size-mb", defaultLogMaxSizeMB, "log file size that triggers rotation")
	rootCmd.PersistentFlags().Int("log-max-backups", defaultLogMaxBackups, "rotated log files to keep")
}

func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:      stringSetting("log-level"),
		File:       stringSetting("log-file"),
		MaxSizeMB:  intSetting("log-max-size-mb"),
		MaxBackups: intSetting("log-max-backups"),
	}
}

// setupLogging installs the default slog logger described by cfg: a text
// handler on stderr, or a JSON handler on a lumberjack-rotated file when
// cfg.File is set. The returned closer is nil for stderr.
func setupLogging(cfg types.LogConfig) (io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.File == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return nil, nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = defaultLogMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultLogMaxBackups
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(file, opts)))
	return file, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q: use debug, info, warn or error", s)
	}
}
