package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload the documents in the data directory to the object store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.manager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			if err := mgr.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to s3://%s\n", mgr.Paths().Dir, c.cfg.Bucket)
			return nil
		},
	}
}
