// Package main is the entry point for the bundle sync service.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stacklok/toolhive-bundle-sync/cmd/thv-bundle-sync/app"
	"github.com/stacklok/toolhive-bundle-sync/internal/config"
	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

// getLogLevel parses the THV_BUNDLE_SYNC_LOG_LEVEL environment variable and returns the corresponding slog.Level.
// Falls back to LOG_LEVEL. Defaults to slog.LevelInfo if neither is set or if the value is invalid.
func getLogLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

// zapLevel maps a slog level onto the zap level that lets it through once slog
// records are routed via logr. Debug records arrive as V(4), which zapr logs at -4.
func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.Level(-4)
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// newLogger builds structured JSON logging on stderr, keeping stdout clean for
// commands that print data
func newLogger(level slog.Level) (*slog.Logger, func(), error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}

	handler := telemetry.NewTraceContextHandler(logr.ToSlogHandler(zapr.NewLogger(zl)))
	return slog.New(handler), func() { _ = zl.Sync() }, nil
}

func main() {
	logger, flush, err := newLogger(getLogLevel())
	if err != nil {
		slog.Error("Failed to initialize logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := app.NewRootCmd().Execute(); err != nil {
		flush()
		os.Exit(1)
	}
	flush()
}
