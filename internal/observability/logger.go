// internal/observability/logger.go
package observability

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment overrides for the log section.
const (
	EnvLogLevel   = "LCRMETER_LOG_LEVEL"
	EnvLogNoColor = "LCRMETER_LOG_NOCOLOR"
)

// InitLogger builds the process logger and installs it as the global one.
// Unknown levels fall back to info.
func InitLogger(app, level string, noColor bool) zerolog.Logger {
	return initLogger(os.Stdout, app, level, noColor)
}

func initLogger(out io.Writer, app, level string, noColor bool) zerolog.Logger {
	if v := os.Getenv(EnvLogLevel); v != "" {
		level = v
	}
	if v := os.Getenv(EnvLogNoColor); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			noColor = b
		}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
