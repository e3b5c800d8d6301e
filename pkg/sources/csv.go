package sources

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// CSV reads a header row of field keys followed by one record per row.
type CSV struct {
	path string
	open func(ctx context.Context) (io.ReadCloser, error)
	opts *options
}

// NewCSVFile creates a producer reading path at Produce time.
func NewCSVFile(path string, opts ...Option) *CSV {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = path
	}
	return &CSV{
		path: path,
		open: func(context.Context) (io.ReadCloser, error) { return os.Open(path) }, //nolint:gosec // caller supplied input file
		opts: o,
	}
}

// NewCSV creates a producer over r. It can be produced once.
func NewCSV(r io.Reader, opts ...Option) *CSV {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = "csv"
	}
	return &CSV{
		path: o.name,
		open: func(context.Context) (io.ReadCloser, error) { return io.NopCloser(r), nil },
		opts: o,
	}
}

// Name implements Producer.
func (c *CSV) Name() string { return c.opts.name }

// Produce implements Producer. Empty cells are dropped so they read as absent.
func (c *CSV) Produce(ctx context.Context) ([]records.RawRecord, error) {
	rc, err := c.open(ctx)
	if err != nil {
		return nil, errors.WrapIO("open", c.path, err)
	}
	defer func() { _ = rc.Close() }()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapParse("csv", c.path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out []records.RawRecord
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled(err)
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", c.path, err)
		}

		values := make(map[string]string, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			values[header[i]] = cell
		}
		rec, err := c.opts.rawRecord(values)
		if err != nil {
			pe := errors.NewParseError("csv", c.path, err.Error(), err)
			pe.Line = line
			return nil, pe
		}
		out = append(out, rec)
	}
	return out, nil
}
