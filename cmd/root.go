// Package cmd implements the offer-harvester command-line interface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"offer-harvester/config"
	"offer-harvester/utils"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	debug  bool
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "offer-harvester",
		Short: "Harvest trending affiliate offers",
		Long: `offer-harvester scrapes ClickBank, Hotmart and the CBEngine trends table
for trending offers, summarizes them and writes each run to a timestamped
file under DATA_DIR.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			a.logger = utils.NewLogger()
			a.logger.SetDebug(a.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(newHarvestCommand(a))
	root.AddCommand(newLatestCommand(a))
	root.AddCommand(newGenerateCommand(a))
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}
