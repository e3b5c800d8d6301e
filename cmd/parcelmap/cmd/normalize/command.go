// Package normalize provides commands that show how single values normalize.
package normalize

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/parcelmap/internal/cmd/output"
	"github.com/agentstation/parcelmap/internal/cmd/table"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/normalize"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// AppContext is the subset of the application the normalize commands use.
type AppContext interface {
	Rules() (*rules.Config, error)
	Logger() *zerolog.Logger
	OutputFormat() string
}

// NewCommand creates the normalize command and its subcommands.
func NewCommand(app AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "normalize",
		GroupID: "core",
		Short:   "Show the normalized form of owner names, addresses and parcel ids",
		Example: `  parcelmap normalize name "Smith, John"
  parcelmap normalize address "123 north main street apt 4"
  parcelmap normalize parcel 12-345 --origin SCRAPE`,
	}

	cmd.AddCommand(newNameCommand(app))
	cmd.AddCommand(newAddressCommand(app))
	cmd.AddCommand(newParcelCommand(app))
	return cmd
}

func newNameCommand(app AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "name <value>...",
		Short: "Normalize owner names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := normalizer(app)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(args))
			for _, a := range args {
				name, ok := n.OwnerName(a)
				rows = append(rows, []string{a, name, yesNo(!ok)})
			}
			return render(cmd, app, table.Data{
				Headers:         []string{"Input", "Normalized", "Ambiguous"},
				Rows:            rows,
				ColumnAlignment: []table.Align{table.AlignLeft, table.AlignLeft, table.AlignCenter},
			})
		},
	}
}

func newAddressCommand(app AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "address <value>...",
		Short: "Normalize street addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := normalizer(app)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(args))
			for _, a := range args {
				addr, unit, poBox := n.Address(a)
				rows = append(rows, []string{a, addr, unit, yesNo(poBox)})
			}
			return render(cmd, app, table.Data{
				Headers: []string{"Input", "Address", "Unit", "PO Box"},
				Rows:    rows,
				ColumnAlignment: []table.Align{
					table.AlignLeft, table.AlignLeft, table.AlignLeft, table.AlignCenter,
				},
			})
		},
	}
}

func newParcelCommand(app AppContext) *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:   "parcel <value>...",
		Short: "Normalize parcel ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, ok := records.ParseOrigin(origin)
			if !ok {
				return errors.NewValidationError("origin", origin, "must be API or SCRAPE")
			}
			n, err := normalizer(app)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(args))
			for _, a := range args {
				rows = append(rows, []string{a, n.ParcelID(a, o)})
			}
			return render(cmd, app, table.Data{
				Headers: []string{"Input", "Parcel ID"},
				Rows:    rows,
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", string(records.OriginAPI), "origin whose padding width applies (API or SCRAPE)")
	return cmd
}

func normalizer(app AppContext) (*normalize.Normalizer, error) {
	cfg, err := app.Rules()
	if err != nil {
		return nil, err
	}
	return normalize.New(cfg)
}

// render writes data as a table, or as a list of header-keyed objects for
// structured formats.
func render(cmd *cobra.Command, app AppContext, data table.Data) error {
	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)
	if format == output.FormatTable {
		return formatter.Format(cmd.OutOrStdout(), data)
	}

	out := make([]map[string]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		m := make(map[string]string, len(row))
		for i, cell := range row {
			m[key(data.Headers[i])] = cell
		}
		out = append(out, m)
	}
	return formatter.Format(cmd.OutOrStdout(), out)
}

func key(header string) string {
	return strings.ReplaceAll(strings.ToLower(header), " ", "_")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
