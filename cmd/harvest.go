package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"offer-harvester/observability"
	"offer-harvester/services"
)

func newHarvestCommand(a *app) *cobra.Command {
	var (
		format     string
		headful    bool
		concurrent bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run one harvest and write the results to DATA_DIR",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if format != "" {
				cfg.OutputFormat = format
			}
			if headful {
				cfg.Headless = false
			}
			if concurrent {
				cfg.ConcurrentAdapters = true
			}

			opts := services.HarvesterOptions{Config: cfg, Logger: a.logger}
			if !asJSON {
				opts.Summary = cmd.OutOrStdout()
			}
			if cfg.MetricsTextfile != "" {
				opts.Metrics = observability.NewMetrics()
			}

			h, err := services.NewHarvester(opts)
			if err != nil {
				return err
			}

			a.logger.Info("=== Offer harvest starting ===")
			result := h.Harvest(cmd.Context(), cfg.Credentials())

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else if result.Success {
				out := result.OutputFile
				if out == "" {
					out = "(not written)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d offers -> %s\n", result.RunID, result.RecordsTotal, out)
			}

			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: csv or xlsx (default OUTPUT_FORMAT)")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "run adapters in parallel, one browser each")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run result as JSON")
	return cmd
}
