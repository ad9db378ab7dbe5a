package log

import (
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatText outputs logs in human-readable key=value form
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat parses a string into a Format. Anything unrecognized is text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return os.Stderr
	}
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr. Stdout is reserved for
// command results so that `oactl ... --format json | jq` stays parseable.
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName and ServiceVersion are attached to every record when set
	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs warnings and above as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:       LevelWarn,
		Format:      FormatText,
		Output:      OutputStderr(),
		ServiceName: "oactl",
	}
}

// DevelopmentConfig logs everything with source locations.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	cfg.AddSource = true
	return cfg
}

// ConfigFromFlags builds a config from the CLI's log settings. Verbose wins over
// an explicit level; quiet only lets errors through.
func ConfigFromFlags(level, format string, verbose, quiet bool) Config {
	cfg := DefaultConfig()
	if level != "" {
		cfg.Level = ParseLevel(level)
	}
	if format != "" {
		cfg.Format = ParseFormat(format)
	}
	switch {
	case verbose:
		cfg.Level = LevelDebug
	case quiet:
		cfg.Level = LevelError
	}
	return cfg
}
