package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func rollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll-dates",
		Short: "Run the month-end date roll on the server",
		Example: `  b24ctl roll-dates
  b24ctl roll-dates --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			res, err := c.RollDates(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			return printRollResult(res)
		},
	}
}
