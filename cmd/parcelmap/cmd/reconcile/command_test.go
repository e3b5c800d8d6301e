package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/internal/cmd/application"
	"github.com/agentstation/parcelmap/internal/metrics"
	"github.com/agentstation/parcelmap/internal/transport"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/sources"
)

const (
	apiNDJSON = `{"parcel_id":"12-345","owner_name":"Smith, John","address":"123 Main St","city":"Springfield","state":"IL","zip":"62701"}
{"parcel_id":"99-001","owner_name":"Acme Holdings LLC","address":"500 Oak Ave"}
`
	scrapeCSV = `parcel_id,owner_name,address,square_footage,sale_price
12345,John Smith,123 Main Street,1850,300000
,No Parcel,9 Elm St,,
`
)

func writeInputs(t *testing.T) (dir, api, scrape string) {
	t.Helper()
	dir = t.TempDir()
	api = filepath.Join(dir, "api.ndjson")
	scrape = filepath.Join(dir, "scrape.csv")
	require.NoError(t, os.WriteFile(api, []byte(apiNDJSON), 0o600))
	require.NoError(t, os.WriteFile(scrape, []byte(scrapeCSV), 0o600))
	return dir, api, scrape
}

func execute(t *testing.T, app *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReconcileTable(t *testing.T) {
	_, api, scrape := writeInputs(t)

	out, err := execute(t, &application.Mock{}, "--api", api, "--scrape", scrape)
	require.NoError(t, err)

	assert.Contains(t, out, "merged-12345")
	assert.Contains(t, out, "Quality report:")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "Reconciled 4 records into 2")
	assert.Contains(t, out, "Average Score")
	assert.NotContains(t, out, "deed_page")
}

func TestReconcileDetailsShowsCoverage(t *testing.T) {
	_, api, scrape := writeInputs(t)

	out, err := execute(t, &application.Mock{}, "--api", api, "--scrape", scrape, "--details")
	require.NoError(t, err)

	assert.Contains(t, out, "deed_page")
	assert.Contains(t, out, "100.0%")
}

func TestReconcileJSON(t *testing.T) {
	_, api, scrape := writeInputs(t)
	app := &application.Mock{OutputFormatFunc: func() string { return "json" }}

	out, err := execute(t, app, "--api", api, "--scrape", scrape)
	require.NoError(t, err)

	var view struct {
		Summary string `json:"summary"`
		Records []struct {
			ID string `json:"id"`
		} `json:"records"`
		Report struct {
			Entries []struct {
				Severity string `json:"severity"`
			} `json:"entries"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Records, 2)
	require.NotEmpty(t, view.Report.Entries)
	assert.Equal(t, "CRITICAL", view.Report.Entries[0].Severity)
}

func TestReconcileWritesFiles(t *testing.T) {
	dir, api, scrape := writeInputs(t)
	m := metrics.NewPrivate()
	app := &application.Mock{
		OutputFormatFunc: func() string { return "json" },
		MetricsFunc:      func() *metrics.Metrics { return m },
	}

	outPath := filepath.Join(dir, "out", "records.yaml")
	provPath := filepath.Join(dir, "out", "provenance.yaml")
	metricsPath := filepath.Join(dir, "out", "parcelmap.prom")
	reportPath := filepath.Join(dir, "review.md")

	_, err := execute(t, app,
		"--api", api, "--scrape", scrape,
		"--out", outPath,
		"--report", reportPath,
		"--provenance", provPath,
		"--metrics-file", metricsPath,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "merged-12345")

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(report), "#"), "markdown report expected")

	prov, err := provenance.Load(provPath)
	require.NoError(t, err)
	require.NotNil(t, prov)
	assert.NotEmpty(t, prov.Provenance)

	_, err = os.Stat(metricsPath)
	assert.NoError(t, err)
}

func TestReconcileDefaultReport(t *testing.T) {
	dir, api, _ := writeInputs(t)
	outPath := filepath.Join(dir, "records.ndjson")

	_, err := execute(t, &application.Mock{}, "--api", api, "--out", outPath)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "quality_report.yaml"))
	assert.NoError(t, err)
}

func TestReconcileErrors(t *testing.T) {
	_, api, _ := writeInputs(t)

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{
			name:  "no inputs",
			args:  nil,
			check: errors.IsValidationError,
		},
		{
			name:  "bad out format",
			args:  []string{"--api", api, "--out", filepath.Join(t.TempDir(), "r.out"), "--out-format", "xml"},
			check: errors.IsValidationError,
		},
		{
			name: "missing file",
			args: []string{"--api", filepath.Join(t.TempDir(), "missing.ndjson")},
			check: func(err error) bool {
				var ioErr *errors.IOError
				return errors.As(err, &ioErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, &application.Mock{}, tt.args...)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestProducers(t *testing.T) {
	flags := &Flags{
		API:        []string{"county.ndjson", "county.CSV", "https://county.example.gov/parcels?page=1"},
		Scrape:     []string{"scraped.csv", "https://scraper.example.com/out.csv?run=7"},
		ScrapeHTML: []string{"pages"},
	}

	ps := Producers(rules.Default(), flags, transport.New(nil, ""))
	require.Len(t, ps, 6)

	assert.IsType(t, &sources.NDJSON{}, ps[0])
	assert.IsType(t, &sources.CSV{}, ps[1])
	assert.IsType(t, &sources.NDJSON{}, ps[2])
	assert.IsType(t, &sources.CSV{}, ps[3])
	assert.IsType(t, &sources.CSV{}, ps[4])
	assert.IsType(t, &sources.HTMLForm{}, ps[5])
	assert.Equal(t, "county.ndjson", ps[0].Name())
	assert.Equal(t, "https://county.example.gov/parcels?page=1", ps[2].Name())
}

func TestReconcileRemoteInput(t *testing.T) {
	t.Setenv("API_TOKEN", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, apiNDJSON)
	}))
	defer srv.Close()

	app := &application.Mock{OutputFormatFunc: func() string { return "json" }}

	out, err := execute(t, app, "--api", srv.URL+"/parcels.ndjson", "--api-auth", "bearer")
	require.NoError(t, err)
	assert.Contains(t, out, "Reconciled 2 records into 2")

	_, err = execute(t, app, "--api", srv.URL+"/parcels.ndjson", "--api-auth", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPrintEmptyRun(t *testing.T) {
	r, err := (&application.Mock{}).Reconciler()
	require.NoError(t, err)

	result, err := r.Run(context.Background(), []records.RawRecord{
		{Origin: records.OriginAPI, Fields: map[string]string{
			"parcel_id": "1", "owner_name": "Jane Doe", "address": "1 Elm St",
			"city": "Springfield", "state": "IL", "zip": "62701",
			"assessed_value": "100000", "square_footage": "1200", "year_built": "1990",
			"sale_price": "150000", "sale_date": "2020-01-01", "bedrooms": "3", "bathrooms": "2",
		}},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Print(&out, "table", result, false, false))
	assert.NotContains(t, out.String(), "Jane Doe")
	assert.Contains(t, out.String(), "Reconciled 1 records into 1")
}
