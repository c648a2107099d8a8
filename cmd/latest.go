package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"offer-harvester/storage"
)

func newLatestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the path of the most recent output file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := storage.Latest(a.cfg.DataDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
