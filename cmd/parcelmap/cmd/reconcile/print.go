package reconcile

import (
	"fmt"
	"io"

	"github.com/agentstation/parcelmap/internal/cmd/emoji"
	"github.com/agentstation/parcelmap/internal/cmd/output"
	"github.com/agentstation/parcelmap/internal/cmd/table"
	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
)

// View is the structured output of a run.
type View struct {
	RunID   string                     `json:"run_id" yaml:"run_id"`
	Summary string                     `json:"summary" yaml:"summary"`
	Records []*records.CanonicalRecord `json:"records,omitempty" yaml:"records,omitempty"`
	Report  *report.Report             `json:"report" yaml:"report"`
}

// Print renders result in the requested format. Records are included only
// when withRecords is set (they were not written to a file).
func Print(w io.Writer, format string, result *reconciler.Result, withRecords, details bool) error {
	f := output.DetectFormat(format)
	if f != output.FormatTable {
		view := View{
			RunID:   result.Metadata.RunID,
			Summary: result.Summary(),
			Report:  result.Report,
		}
		if withRecords {
			view.Records = result.Records
		}
		return output.NewFormatter(f).Format(w, view)
	}

	formatter := output.NewFormatter(output.FormatTable)
	if withRecords && len(result.Records) > 0 {
		if err := formatter.Format(w, table.RecordsToTableData(result.Records, details)); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if n := len(result.Report.Entries); n > 0 {
		symbol := emoji.Warning
		if len(result.Report.Critical()) > 0 {
			symbol = emoji.Error
		}
		fmt.Fprintf(w, "%s Quality report: %d records need review\n", symbol, n)
		if err := formatter.Format(w, table.ReportToTableData(result.Report)); err != nil {
			return err
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s No records need review.\n", emoji.Success)
	}

	if details && len(result.Report.Summary.Coverage) > 0 {
		if err := formatter.Format(w, table.CoverageToTableData(result.Report.Summary.Coverage)); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if err := formatter.Format(w, table.SummaryToTableData(result.Report.Summary)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, result.Summary())
	return err
}
