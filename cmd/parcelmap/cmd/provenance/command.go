// Package provenance provides the command that displays saved field provenance.
package provenance

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/parcelmap/internal/cmd/output"
	"github.com/agentstation/parcelmap/internal/cmd/table"
	"github.com/agentstation/parcelmap/internal/pattern"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/provenance"
)

// AppContext is the subset of the application the provenance command uses.
type AppContext interface {
	Logger() *zerolog.Logger
	OutputFormat() string
}

// NewCommand creates the provenance command.
func NewCommand(app AppContext) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:     "provenance <file>",
		GroupID: "management",
		Short:   "Show which origin supplied each field of merged records",
		Long: `Show the provenance file written by "reconcile --provenance". Each merged
record lists the candidate values per field, newest first, with the winning
value marked.`,
		Example: `  parcelmap provenance out/provenance.yaml
  parcelmap provenance out/provenance.yaml --fields 'sale_*' --fields owner_name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := provenance.Load(args[0])
			if err != nil {
				return err
			}
			if file == nil {
				return errors.NewIOError("read", args[0], os.ErrNotExist)
			}
			app.Logger().Debug().Int("entries", len(file.Provenance)).Msg("Loaded provenance")

			format := output.DetectFormat(app.OutputFormat())
			if format != output.FormatTable {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), provenance.GenerateReport(file.Provenance))
			}
			if len(file.Provenance) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No provenance recorded.")
				return err
			}
			set, err := pattern.NewSet(fields, pattern.Auto, pattern.Options{CaseInsensitive: true})
			if err != nil {
				return errors.NewValidationError("fields", fields, err.Error())
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(),
				table.ProvenanceToTableData(file.Provenance, set))
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "only show fields matching these glob or regex patterns (e.g. 'sale_*')")
	return cmd
}
