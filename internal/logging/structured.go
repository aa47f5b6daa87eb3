package logging

import (
	"log/slog"
	"os"
)

// InitStructured reconfigures the operational logger's format and
// level. format is "text" (default) or "json" (Loki/ELK compatible).
func InitStructured(format, level string) {
	SetLevelFromString(level)

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	opLogger.Store(slog.New(handler))
}
