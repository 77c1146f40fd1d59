package config

import (
	"io"
	log "log/slog"

	"github.com/lmittmann/tint"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// SetupLogging installs a tint handler at the given level as the default
// slog logger. Unknown levels fall back to info.
func SetupLogging(w io.Writer, level string) {
	lvl, ok := logLevelMap[level]
	if !ok {
		lvl = log.LevelInfo
	}
	log.SetDefault(log.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
	})))
}
