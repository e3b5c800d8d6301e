// Package save writes reconciled records and the quality report.
package save

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parcelmap/pkg/constants"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
)

// Compile-time interface check to ensure proper implementation.
var _ Consumer = (*Writer)(nil)

// Consumer accepts the final record list and quality report of a run.
type Consumer interface {
	Consume(ctx context.Context, recs []*records.CanonicalRecord, rep *report.Report) error
}

// Writer encodes records to a writer or file and the report to a file.
type Writer struct {
	options Options
}

// New creates a Writer.
func New(opts ...Option) *Writer {
	return &Writer{options: Defaults().Apply(opts...)}
}

// Consume writes recs and, when a report path is configured, rep.
func (w *Writer) Consume(ctx context.Context, recs []*records.CanonicalRecord, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapCanceled(err)
	}
	if !w.options.Format().IsValid() || w.options.Format() == FormatMarkdown {
		return &errors.ConfigError{
			Component: "save",
			Message:   "unsupported record format " + w.options.Format().String(),
		}
	}
	if w.options.Writer() == nil && w.options.Path() == "" {
		return &errors.ConfigError{
			Component: "save",
			Message:   "no writer or path configured for saving",
		}
	}

	if out := w.options.Writer(); out != nil {
		if err := Records(out, recs, w.options.Format()); err != nil {
			return err
		}
	} else if err := writeFile(w.options.Path(), func(f io.Writer) error {
		return Records(f, recs, w.options.Format())
	}); err != nil {
		return err
	}

	if path := w.options.ReportPath(); path != "" && rep != nil {
		if err := WriteReport(path, rep, w.options.ReportFormat()); err != nil {
			return err
		}
	}

	logging.FromContext(ctx).Debug().
		Int("records", len(recs)).
		Str("format", w.options.Format().String()).
		Str("path", w.options.Path()).
		Str("report_path", w.options.ReportPath()).
		Msg("Saved reconciliation output")
	return nil
}

// Records encodes recs to out.
func Records(out io.Writer, recs []*records.CanonicalRecord, format Format) error {
	if recs == nil {
		recs = []*records.CanonicalRecord{}
	}
	switch format {
	case FormatNDJSON:
		enc := json.NewEncoder(out)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return errors.WrapParse("ndjson", r.ID, err)
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recs); err != nil {
			return errors.WrapParse("json", "records", err)
		}
		return nil
	case FormatYAML:
		return encodeYAML(out, recs, "records")
	}
	return errors.NewValidationError("format", format.String(), "not a record format")
}

// Report encodes rep to out.
func Report(out io.Writer, rep *report.Report, format Format) error {
	switch format {
	case FormatMarkdown:
		return rep.WriteMarkdown(out)
	case FormatJSON, FormatNDJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return errors.WrapParse("json", "report", err)
		}
		return nil
	case FormatYAML:
		return encodeYAML(out, rep, "report")
	}
	return errors.NewValidationError("format", format.String(), "not a report format")
}

// WriteReport writes rep to path, creating parent directories.
func WriteReport(path string, rep *report.Report, format Format) error {
	return writeFile(path, func(f io.Writer) error {
		return Report(f, rep, format)
	})
}

func encodeYAML(out io.Writer, v any, what string) error {
	data, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", what, err)
	}
	if _, err := out.Write(data); err != nil {
		return errors.WrapIO("write", what, err)
	}
	return nil
}

// writeFile creates path and its directory and hands a buffered writer to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() { _ = f.Close() }()

	buf := bufio.NewWriter(f)
	if err := fn(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}
