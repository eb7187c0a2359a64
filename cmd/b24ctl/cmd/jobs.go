package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Show the scheduler state and last roll outcome",
		Example: `  b24ctl jobs
  b24ctl jobs --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			status, err := c.Jobs(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(status)
			}
			if len(status.Entries) == 0 {
				fmt.Println("No jobs scheduled.")
				return nil
			}
			return printJobsTable(status)
		},
	}
}
