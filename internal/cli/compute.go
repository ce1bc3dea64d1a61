/*
PURPOSE:
  Defines the 'compute' subcommand.
  Runs one batch from the command line, prints the trace and exports the
  summary table and chart.

REQUIREMENTS:
  Implementation-discovered:
  - Same pipeline as the web form (decode -> expand -> dispatch -> report).
  - Parameters are given as repeated --set KEY=VALUE and coerced like form fields.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Dispatcher.Run(), internal/output.Export()
  - Uses: internal/config, internal/params

ERROR HANDLING:
  - Malformed or unknown --set pairs, missing selection, unknown mode: error
    before running.
  - Per-configuration failures are part of the trace; the command fails only
    when no configuration produced a result.

USAGE:
  wst-etc compute --config-pair ifs-blue --mode dit_snr --set SNR=20

RELATED FILES:
  - internal/web/server.go (same pipeline)
*/

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wst-etc/internal/engine"
	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/output"
	"github.com/daryltucker/wst-etc/internal/params"
)

// errNoResults is returned when every configuration failed.
var errNoResults = errors.New("no configuration produced a result")

var (
	pairFlags      []string
	modeFlag       string
	setFlags       []string
	outputOverride string
	noExport       bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Run one computation and export the results",
	Example: `  # SNR for the IFS blue channel with default parameters
  wst-etc compute --config-pair ifs-blue

  # Exposures needed to reach SNR 20 at 6000 Å in two channels
  wst-etc compute --config-pair ifs-blue --config-pair moslr-green \
    --mode dit_snr --set SNR=20 --set Lam_Ref=6000 -o ./results`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig("console")
		if err != nil {
			return err
		}
		if outputOverride != "" {
			cfg.OutputDir = outputOverride
		}

		form, err := params.DecodeAssignments(setFlags)
		if err != nil {
			return err
		}
		configs, err := params.Expand(pairFlags, params.Decode(form, cfg.FormDefaults()))
		if err != nil {
			if errors.Is(err, params.ErrNoConfiguration) {
				return fmt.Errorf("%w: use --config-pair (one of %s)", err, strings.Join(model.AllPairs(), ", "))
			}
			return err
		}
		mode, err := model.ParseComputeMode(modeFlag)
		if err != nil {
			return err
		}

		batch := engine.New(newCalculator(cfg)).Run(cmd.Context(), mode, configs)
		fmt.Fprintln(cmd.OutOrStdout(), engine.Trace(batch))

		plot := engine.Report(batch)
		if plot == nil {
			return errNoResults
		}
		if noExport {
			return nil
		}
		paths, err := output.Export(cfg.OutputDir, plot)
		if err != nil {
			return err
		}
		output.Logger.Infow("Results written", "csv", paths.CSV, "json", paths.JSON, "chart", paths.Chart)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringSliceVarP(&pairFlags, "config-pair", "c", nil, "Instrument-channel pair, repeatable (e.g. ifs-blue)")
	computeCmd.Flags().StringVarP(&modeFlag, "mode", "m", string(model.ModeDITNDIT), "Compute mode: dit_ndit, dit_snr or ndit_snr")
	computeCmd.Flags().StringArrayVarP(&setFlags, "set", "s", nil, "Parameter assignment KEY=VALUE, repeatable")
	computeCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for results (CSV/JSON/PNG)")
	computeCmd.Flags().BoolVar(&noExport, "no-export", false, "Only print the trace")
}
