// Package logging builds the charmbracelet/log logger shared by the server
// and the CLI.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	Level           string // debug | info | warn | error | fatal
	Format          string // text | json | logfmt
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultOptions returns info-level text logging with timestamps and the
// priotodo prefix.
func DefaultOptions() Options {
	return Options{
		Level:           "info",
		Format:          "text",
		ReportTimestamp: true,
		Prefix:          "priotodo",
	}
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a config string to a level. Unknown values mean info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter maps a config string to a formatter. Unknown values mean text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
