package logger

import (
	"context"
	"os"
	"strings"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

type contextKey struct{}

// Config stores the logger configuration parsed from a TOML file.
type Config struct {
	Output   string `toml:"output"`
	Severity string `toml:"severity"`
}

// Init sets up logging with sane defaults until a configuration file is
// parsed.
func Init() {
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	log.SetLevel(log.ErrorLevel)
	log.SetOutput(os.Stderr)
}

// Setup reconfigures the standard logger according to the config.
func Setup(conf Config) error {
	switch conf.Output {
	case "", "stderr":
		log.SetOutput(os.Stderr)
	case "stdout":
		log.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(conf.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			return trace.Wrap(err, "failed to open log output %q", conf.Output)
		}
		log.SetOutput(file)
	}

	severity := strings.ToLower(conf.Severity)
	if severity == "" {
		severity = "info"
	}
	level, err := log.ParseLevel(severity)
	if err != nil {
		return trace.BadParameter("unknown log severity %q", conf.Severity)
	}
	log.SetLevel(level)

	return nil
}

// Standard returns the standard logger.
func Standard() log.FieldLogger {
	return log.StandardLogger()
}

// With returns a context holding the given logger.
func With(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// Get returns the logger stored in the context, falling back to the standard
// one.
func Get(ctx context.Context) log.FieldLogger {
	if logger, ok := ctx.Value(contextKey{}).(log.FieldLogger); ok {
		return logger
	}
	return Standard()
}
