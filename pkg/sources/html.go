package sources

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Page is one saved property-detail page.
type Page struct {
	Name string
	Body io.Reader
}

// HTMLForm extracts one scraped record per saved property-detail page.
// Each field is read with the first configured CSS selector that yields
// text; fields without a selector hit fall back to labelled table cells
// ("<td>Owner Name</td><td>...</td>").
type HTMLForm struct {
	name      string
	selectors map[string][]string
	labels    func(string) string
	pages     func() ([]Page, func(), error)
	opts      *options
}

// NewHTMLDir creates a producer over every .html/.htm file in dir, read in
// name order. labels maps a table label to a canonical field key; nil
// lowercases the label and joins its words with underscores.
func NewHTMLDir(dir string, selectors map[string][]string, labels func(string) string, opts ...Option) *HTMLForm {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = dir
	}
	h := newHTMLForm(selectors, labels, o)
	h.pages = func() ([]Page, func(), error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, nil, errors.WrapIO("read", dir, err)
		}
		var names []string
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".html" || ext == ".htm") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		var files []*os.File
		closeAll := func() {
			for _, f := range files {
				_ = f.Close()
			}
		}
		pages := make([]Page, 0, len(names))
		for _, n := range names {
			path := filepath.Join(dir, n)
			f, err := os.Open(path) //nolint:gosec // files listed from caller supplied dir
			if err != nil {
				closeAll()
				return nil, nil, errors.WrapIO("open", path, err)
			}
			files = append(files, f)
			pages = append(pages, Page{Name: path, Body: f})
		}
		return pages, closeAll, nil
	}
	return h
}

// NewHTMLPages creates a producer over in-memory pages.
func NewHTMLPages(pages []Page, selectors map[string][]string, labels func(string) string, opts ...Option) *HTMLForm {
	o := defaultOptions().apply(opts...)
	if o.name == "" {
		o.name = "html"
	}
	h := newHTMLForm(selectors, labels, o)
	h.pages = func() ([]Page, func(), error) { return pages, func() {}, nil }
	return h
}

func newHTMLForm(selectors map[string][]string, labels func(string) string, o *options) *HTMLForm {
	if o.origin == "" {
		o.origin = records.OriginScrape
	}
	if labels == nil {
		labels = func(s string) string {
			return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(s))
		}
	}
	return &HTMLForm{name: o.name, selectors: selectors, labels: labels, opts: o}
}

// Name implements Producer.
func (h *HTMLForm) Name() string { return h.name }

// Produce implements Producer. A page that cannot be parsed yields a record
// carrying the failure so it is reported rather than silently lost.
func (h *HTMLForm) Produce(ctx context.Context) ([]records.RawRecord, error) {
	pages, done, err := h.pages()
	if err != nil {
		return nil, err
	}
	defer done()

	out := make([]records.RawRecord, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled(err)
		}
		rec := records.RawRecord{Origin: h.opts.origin, FetchedAt: h.opts.fetchedAt}
		fields, err := h.Extract(p.Body)
		if err != nil {
			rec.FetchError = errors.NewParseError("html", p.Name, err.Error(), err).Error()
		}
		rec.Fields = fields
		out = append(out, rec)
	}
	return out, nil
}

// Extract reads field values from one page.
func (h *HTMLForm) Extract(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	enc, _, _ := charset.DetermineEncoding(data, "text/html")
	if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
		data = decoded
	} else if !utf8.Valid(data) {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.Find("script,noscript,style").Remove()

	fields := make(map[string]string)
	for field, sels := range h.selectors {
		for _, sel := range sels {
			if text := cellText(doc.Find(sel).First()); text != "" {
				fields[field] = text
				break
			}
		}
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td,th")
		if cells.Length() < 2 {
			return
		}
		key := h.labels(strings.TrimRight(cellText(cells.Eq(0)), ": "))
		if _, known := records.Lookup(key); !known {
			return
		}
		if _, set := fields[key]; set {
			return
		}
		if text := cellText(cells.Eq(1)); text != "" {
			fields[key] = text
		}
	})
	return fields, nil
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
