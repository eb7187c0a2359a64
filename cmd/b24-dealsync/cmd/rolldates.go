package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rollDatesCmd = &cobra.Command{
	Use:   "roll-dates",
	Short: "Run the month-end date roll once and print the result",
	RunE:  runRollDates,
}

func init() {
	rootCmd.AddCommand(rollDatesCmd)
}

func runRollDates(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	res, err := eng.RollDates(cmd.Context())
	if err != nil {
		return fmt.Errorf("rolling dates: %w", err)
	}

	if err := printJSON(res); err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d elements failed", res.Failed, res.Failed+res.Updated)
	}
	return nil
}
