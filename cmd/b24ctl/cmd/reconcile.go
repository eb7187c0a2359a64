package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var (
		dryRun bool
		debug  bool
	)

	c := &cobra.Command{
		Use:   "reconcile <deal_id>",
		Short: "Reconcile one deal on the server",
		Args:  cobra.ExactArgs(1),
		Example: `  b24ctl reconcile 301
  b24ctl reconcile 301 --dry-run --output json`,
		RunE: func(_ *cobra.Command, args []string) error {
			dealID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			cl := newClient()
			res, err := cl.ReconcileDeal(context.Background(), dealID, dryRun, debug)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			return printSyncResult(res)
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "compute the decision without writing")
	c.Flags().BoolVar(&debug, "debug", false, "include per-product lookup traces")

	return c
}
