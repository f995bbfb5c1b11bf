// Package logging provides the component loggers used by every provider.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

const (
	// Overrides the configured level, e.g. "debug" or "trace".
	LevelEnv = "BARSYNC_LOG_LEVEL"
	// Set to "true" to report the caller of each log entry.
	CallerEnv = "BARSYNC_LOG_CALLER"
)

// Config is the "log" section of the configuration file.
type Config struct {
	Level        string `yaml:"level" json:"level" toml:"level" mapstructure:"level" jsonschema:"enum=panic,enum=fatal,enum=error,enum=warn,enum=info,enum=debug,enum=trace,description=Minimum log level"`
	Format       string `yaml:"format" json:"format" toml:"format" mapstructure:"format" jsonschema:"enum=text,enum=json,description=Log output format"`
	ReportCaller bool   `yaml:"report_caller" json:"report_caller" toml:"report_caller" mapstructure:"report_caller" jsonschema:"description=Include the caller in each entry"`
}

var (
	base      = newBase()
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

func newBase() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(textFormatter(os.Stderr))
	logger.SetLevel(logrus.InfoLevel)
	applyEnv(logger)
	return logger
}

func textFormatter(w io.Writer) logrus.Formatter {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &logrus.TextFormatter{
		ForceColors:   interactive,
		DisableColors: !interactive,
		FullTimestamp: true,
	}
}

func applyEnv(logger *logrus.Logger) {
	if lvl := os.Getenv(LevelEnv); lvl != "" {
		if level, err := logrus.ParseLevel(lvl); err == nil {
			logger.SetLevel(level)
		}
	}
	if os.Getenv(CallerEnv) == "true" {
		logger.SetReportCaller(true)
	}
}

// NewLogger returns the logger for a component. Loggers are cached, so
// calling it twice with the same component returns the same entry.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	entry := base.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure applies cfg to all loggers, including the ones already
// returned by [NewLogger]. Environment variables take precedence.
func Configure(cfg Config) {
	if cfg.Level != "" {
		if level, err := logrus.ParseLevel(cfg.Level); err == nil {
			base.SetLevel(level)
		} else {
			base.WithError(err).Warnf("Invalid log level %q, keeping %s", cfg.Level, base.GetLevel())
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		base.SetFormatter(textFormatter(base.Out))
	default:
		base.Warnf("Unknown log format %q, using text", cfg.Format)
		base.SetFormatter(textFormatter(base.Out))
	}

	base.SetReportCaller(cfg.ReportCaller)
	applyEnv(base)
}

// SetOutput redirects all loggers, mostly useful in tests.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}
