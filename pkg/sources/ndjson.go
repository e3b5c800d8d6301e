package sources

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/agentstation/parcelmap/pkg/constants"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Keys with special meaning in file rows. Everything else is a record field.
const (
	KeyOrigin     = "origin"
	KeyFetchedAt  = "fetched_at"
	KeyFetchError = "fetch_error"
	KeyFields     = "fields"
)

// NDJSON reads one JSON object per line. A row is either a flat object of
// field values or a serialized RawRecord with a nested "fields" object.
type NDJSON struct {
	path string
	open func(ctx context.Context) (io.ReadCloser, error)
	opts *options
}

// NewNDJSONFile creates a producer reading path at Produce time.
func NewNDJSONFile(path string, opts ...Option) *NDJSON {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = path
	}
	return &NDJSON{
		path: path,
		open: func(context.Context) (io.ReadCloser, error) { return os.Open(path) }, //nolint:gosec // caller supplied input file
		opts: o,
	}
}

// NewNDJSON creates a producer over r. It can be produced once.
func NewNDJSON(r io.Reader, opts ...Option) *NDJSON {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = "ndjson"
	}
	return &NDJSON{
		path: o.name,
		open: func(context.Context) (io.ReadCloser, error) { return io.NopCloser(r), nil },
		opts: o,
	}
}

// Name implements Producer.
func (n *NDJSON) Name() string { return n.opts.name }

// Produce implements Producer.
func (n *NDJSON) Produce(ctx context.Context) ([]records.RawRecord, error) {
	rc, err := n.open(ctx)
	if err != nil {
		return nil, errors.WrapIO("open", n.path, err)
	}
	defer func() { _ = rc.Close() }()

	var out []records.RawRecord
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), constants.MaxLineSize)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled(err)
		}
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		rec, err := n.decode(text)
		if err != nil {
			pe := errors.NewParseError("ndjson", n.path, err.Error(), err)
			pe.Line = line
			return nil, pe
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapIO("read", n.path, err)
	}
	return out, nil
}

func (n *NDJSON) decode(line []byte) (records.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return records.RawRecord{}, err
	}

	values := make(map[string]string, len(obj))
	if nested, ok := obj[KeyFields].(map[string]any); ok {
		for k, v := range nested {
			values[k] = stringify(v)
		}
		for _, k := range []string{KeyOrigin, KeyFetchedAt, KeyFetchError} {
			if v, ok := obj[k]; ok {
				values[k] = stringify(v)
			}
		}
	} else {
		for k, v := range obj {
			values[k] = stringify(v)
		}
	}
	return n.opts.rawRecord(values)
}

// rawRecord splits the special keys out of values.
func (o *options) rawRecord(values map[string]string) (records.RawRecord, error) {
	rec := records.RawRecord{
		Origin:    o.origin,
		FetchedAt: o.fetchedAt,
		Fields:    make(map[string]string, len(values)),
	}
	for k, v := range values {
		switch strings.ToLower(strings.TrimSpace(k)) {
		case KeyOrigin:
			if strings.TrimSpace(v) == "" {
				continue
			}
			origin, ok := records.ParseOrigin(v)
			if !ok {
				return rec, fmt.Errorf("unknown origin %q", v)
			}
			rec.Origin = origin
		case KeyFetchedAt:
			if strings.TrimSpace(v) == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
			if err != nil {
				return rec, fmt.Errorf("invalid fetched_at %q: %w", v, err)
			}
			rec.FetchedAt = t
		case KeyFetchError:
			rec.FetchError = strings.TrimSpace(v)
		default:
			rec.Fields[k] = v
		}
	}
	if rec.Origin == "" {
		return rec, fmt.Errorf("row has no origin and the producer has no default")
	}
	return rec, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
