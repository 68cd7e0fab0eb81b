package main

import (
	"github.com/spf13/cobra"
)

func extractCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Fetch and extract reports into the data directory without uploading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.manager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			report, err := mgr.Extract(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}
