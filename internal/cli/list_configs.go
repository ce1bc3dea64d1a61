/*
PURPOSE:
  Defines the 'list-configs' subcommand.
  Lists the instrument-channel pairs and, for the remote backend, checks
  that the service answers.

USAGE:
  wst-etc list-configs
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/web"
)

var listConfigsCmd = &cobra.Command{
	Use:   "list-configs",
	Short: "List instrument-channel pairs and check the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig("console")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		for _, in := range model.Instruments {
			fmt.Fprintf(out, "%s  family=%s  saturation=%s\n", in.ID, in.Family, in.Family.SaturationUnit())
			for _, ch := range in.Channels {
				fmt.Fprintf(out, "- %-12s %s\n", model.PairKey(in.ID, ch), model.Color(in.ID, ch))
			}
		}

		calc := newCalculator(cfg)
		hc, ok := calc.(web.HealthChecker)
		if !ok {
			fmt.Fprintf(out, "\nBackend: %s\n", cfg.Backend)
			return nil
		}
		fmt.Fprintf(out, "\nQuerying %s...\n", cfg.BackendURL)
		if err := hc.Health(cmd.Context()); err != nil {
			return fmt.Errorf("backend %s unavailable: %w", cfg.BackendURL, err)
		}
		fmt.Fprintln(out, "Backend: ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listConfigsCmd)
}
