// Package rules provides commands for inspecting and checking rule sets.
package rules

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/parcelmap/internal/cmd/emoji"
	"github.com/agentstation/parcelmap/internal/cmd/output"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// AppContext is the subset of the application the rules commands use.
type AppContext interface {
	Rules() (*rules.Config, error)
	Logger() *zerolog.Logger
	OutputFormat() string
}

// NewCommand creates the rules command.
func NewCommand(app AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		GroupID: "management",
		Short:   "Show or validate normalization and scoring rules",
	}
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newValidateCommand(app))
	return cmd
}

func newShowCommand(app AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active rule set",
		Long: `Print the rule set the reconcile command would use, after the rules file,
environment and config overrides are applied. Defaults to YAML, which can be
saved and edited as a rules file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Rules()
			if err != nil {
				return err
			}
			format := output.Format(app.OutputFormat())
			if format == output.FormatJSON {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), cfg)
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newValidateCommand(app AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check that a rules file loads and passes validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rules.Load(args[0])
			if err != nil {
				return err
			}
			app.Logger().Debug().Str("path", args[0]).Msg("Rules file valid")
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"%s %s is valid (name %.0f, address %.0f, conflict %.0f, %d workers)\n",
				emoji.Success, args[0], cfg.Thresholds.Name, cfg.Thresholds.Address, cfg.Thresholds.Conflict, cfg.Workers)
			return err
		},
	}
}
