package save

import (
	"io"
	"path/filepath"
	"strings"
)

// Format is an output encoding.
type Format int

// Format constants.
const (
	FormatNDJSON Format = iota
	FormatJSON
	FormatYAML
	FormatMarkdown
)

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatNDJSON, FormatJSON, FormatYAML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "markdown"
	}
	return "unknown"
}

// ParseFormat parses a format name. ok is false for unknown names.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ndjson", "jsonl":
		return FormatNDJSON, true
	case "json":
		return FormatJSON, true
	case "yaml", "yml":
		return FormatYAML, true
	case "markdown", "md":
		return FormatMarkdown, true
	}
	return 0, false
}

// FormatFor picks a format from a file extension, falling back to def.
func FormatFor(path string, def Format) Format {
	if f, ok := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); ok {
		return f
	}
	return def
}

// Options is the configuration for save.
type Options struct {
	path         string
	writer       io.Writer
	format       Format
	reportPath   string
	reportFormat Format
}

// Path returns the path for the save options.
func (s *Options) Path() string {
	return s.path
}

// Writer returns the writer for the save options.
func (s *Options) Writer() io.Writer {
	return s.writer
}

// Format returns the format for the save options.
func (s *Options) Format() Format {
	return s.format
}

// ReportPath returns where the quality report is written.
func (s *Options) ReportPath() string {
	return s.reportPath
}

// ReportFormat returns the report encoding.
func (s *Options) ReportFormat() Format {
	return s.reportFormat
}

// Defaults returns the default save options.
func Defaults() *Options {
	return &Options{
		path:         "",
		writer:       nil,
		format:       FormatNDJSON,
		reportFormat: FormatYAML,
	}
}

// Apply applies the given options to the save options.
func (s *Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		opt(s)
	}
	return *s
}

// Option is a function that configures save options.
type Option func(*Options)

// WithFormat for custom output format.
func WithFormat(f Format) Option {
	return func(s *Options) {
		s.format = f
	}
}

// WithPath for filesystem saves.
func WithPath(path string) Option {
	return func(s *Options) {
		s.path = path
	}
}

// WithWriter for custom outputs.
func WithWriter(w io.Writer) Option {
	return func(s *Options) {
		s.writer = w
	}
}

// WithReportPath writes the quality report to path, encoded by its
// extension (.md, .json, otherwise YAML).
func WithReportPath(path string) Option {
	return func(s *Options) {
		s.reportPath = path
		s.reportFormat = FormatFor(path, FormatYAML)
	}
}

// WithReportFormat overrides the report encoding picked from the path.
func WithReportFormat(f Format) Option {
	return func(s *Options) {
		s.reportFormat = f
	}
}
