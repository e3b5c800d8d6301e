// Package reconcile provides the reconcile command.
package reconcile

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/parcelmap/cmd/application"
	"github.com/agentstation/parcelmap/internal/config"
	"github.com/agentstation/parcelmap/internal/transport"
	"github.com/agentstation/parcelmap/pkg/constants"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/provenance"
	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
	"github.com/agentstation/parcelmap/pkg/save"
	"github.com/agentstation/parcelmap/pkg/sources"
)

// Flags holds the reconcile command flags.
type Flags struct {
	API         []string
	Scrape      []string
	ScrapeHTML  []string
	Out         string
	OutFormat   string
	Report      string
	Provenance  string
	MetricsFile string
	APIAuth     string
	Details     bool
}

// NewCommand creates the reconcile command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Reconcile API and scraped property records",
		Long: `Reconcile reads raw property records, merges API and scraped records
that share a parcel id, removes duplicates, scores every record and writes
a quality report listing the records that need review.

Inputs ending in .csv are read as CSV with a header row; anything else is
read as NDJSON, one JSON object per line. Inputs may be local paths or
http(s) URLs; the API_TOKEN environment variable is sent with remote
requests using the --api-auth scheme. Directories given to --scrape-html
are read as saved property-detail pages.`,
		Example: `  parcelmap reconcile --api county.ndjson --scrape scraped.csv
  parcelmap reconcile --api county.ndjson --scrape-html pages/ --out out/records.ndjson
  parcelmap reconcile --api county.csv --scrape scraped.ndjson --report review.md -o yaml
  API_TOKEN=... parcelmap reconcile --api https://county.example.gov/parcels.ndjson --scrape scraped.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.API, "api", nil, "API record file (NDJSON or CSV), repeatable")
	cmd.Flags().StringSliceVar(&flags.Scrape, "scrape", nil, "scraped record file (NDJSON or CSV), repeatable")
	cmd.Flags().StringSliceVar(&flags.ScrapeHTML, "scrape-html", nil, "directory of saved property-detail pages, repeatable")
	cmd.Flags().StringVar(&flags.Out, "out", "", "write reconciled records to this file instead of stdout")
	cmd.Flags().StringVar(&flags.OutFormat, "out-format", "", "record file format: ndjson, json, yaml (default from --out extension)")
	cmd.Flags().StringVar(&flags.Report, "report", "", "quality report file (.yaml, .json or .md)")
	cmd.Flags().StringVar(&flags.Provenance, "provenance", "", "write field provenance of merged records to this YAML file")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	cmd.Flags().StringVar(&flags.APIAuth, "api-auth", config.GetString(config.KeyAPIAuth), "auth scheme for remote inputs: none, bearer, header:<name>, query:<param>")
	cmd.Flags().BoolVar(&flags.Details, "details", false, "show owner type and notes in table output")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), constants.ReconcileTimeout)
	defer cancel()
	logger := app.Logger()

	cfg, err := app.Rules()
	if err != nil {
		return err
	}

	auth, err := transport.ParseAuth(flags.APIAuth)
	if err != nil {
		return err
	}
	fetcher := transport.New(auth, config.GetString(config.KeyAPIToken))

	producers := Producers(cfg, flags, fetcher)
	if len(producers) == 0 {
		return errors.NewValidationError("input", nil, "pass at least one of --api, --scrape or --scrape-html")
	}

	r, err := app.Reconciler(reconciler.WithProvenance(flags.Provenance != ""))
	if err != nil {
		return err
	}

	result, err := r.Producers(ctx, producers...)
	if err != nil {
		return err
	}

	if err := persist(ctx, flags, result); err != nil {
		return err
	}

	if flags.MetricsFile != "" {
		if m := app.Metrics(); m != nil {
			if err := m.WriteToTextfile(flags.MetricsFile); err != nil {
				return errors.WrapIO("write", flags.MetricsFile, err)
			}
		}
	}

	logger.Info().Str("run_id", result.Metadata.RunID).Msg(result.Summary())
	return Print(cmd.OutOrStdout(), app.OutputFormat(), result, flags.Out == "", flags.Details)
}

// Producers builds one producer per input flag value. Remote inputs are
// fetched with f.
func Producers(cfg *rules.Config, flags *Flags, f sources.Fetcher) []sources.Producer {
	var ps []sources.Producer
	for _, path := range flags.API {
		ps = append(ps, fileProducer(path, records.OriginAPI, f))
	}
	for _, path := range flags.Scrape {
		ps = append(ps, fileProducer(path, records.OriginScrape, f))
	}
	for _, dir := range flags.ScrapeHTML {
		ps = append(ps, sources.NewHTMLDir(dir, cfg.HTMLSelectors, cfg.CanonicalField,
			sources.WithOrigin(records.OriginScrape)))
	}
	return ps
}

func fileProducer(path string, origin records.Origin, f sources.Fetcher) sources.Producer {
	csv := strings.EqualFold(filepath.Ext(strings.SplitN(path, "?", 2)[0]), ".csv")
	switch {
	case sources.IsURL(path) && csv:
		return sources.NewCSVURL(path, f, sources.WithOrigin(origin))
	case sources.IsURL(path):
		return sources.NewNDJSONURL(path, f, sources.WithOrigin(origin))
	case csv:
		return sources.NewCSVFile(path, sources.WithOrigin(origin))
	}
	return sources.NewNDJSONFile(path, sources.WithOrigin(origin))
}

// persist writes the record file, quality report and provenance as requested.
func persist(ctx context.Context, flags *Flags, result *reconciler.Result) error {
	reportPath := flags.Report
	if reportPath == "" && flags.Out != "" {
		reportPath = filepath.Join(filepath.Dir(flags.Out), constants.DefaultReportName+".yaml")
	}

	if flags.Out != "" {
		format := save.FormatFor(flags.Out, save.FormatNDJSON)
		if flags.OutFormat != "" {
			f, ok := save.ParseFormat(flags.OutFormat)
			if !ok {
				return errors.NewValidationError("out-format", flags.OutFormat, "must be one of: ndjson, json, yaml")
			}
			format = f
		}
		w := save.New(
			save.WithPath(flags.Out),
			save.WithFormat(format),
			save.WithReportPath(reportPath),
		)
		if err := w.Consume(ctx, result.Records, result.Report); err != nil {
			return err
		}
	} else if reportPath != "" {
		if err := save.WriteReport(reportPath, result.Report, save.FormatFor(reportPath, save.FormatYAML)); err != nil {
			return err
		}
	}

	if flags.Provenance != "" {
		if err := provenance.Save(flags.Provenance, result.Provenance); err != nil {
			return err
		}
	}
	return nil
}
