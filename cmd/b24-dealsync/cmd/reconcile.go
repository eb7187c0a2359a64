package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

var (
	reconcileDryRun bool
	reconcileDebug  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <deal-id>",
	Short: "Run one deal synchronization and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "compute the decision without writing")
	reconcileCmd.Flags().BoolVar(&reconcileDebug, "debug", false, "include per-product lookup traces")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	dealID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || dealID <= 0 {
		return fmt.Errorf("invalid deal id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	res, err := eng.SyncDeal(cmd.Context(), dealID, engine.SyncOptions{
		DryRun: reconcileDryRun,
		Debug:  reconcileDebug,
	})
	if err != nil {
		return fmt.Errorf("reconciling deal %d: %w", dealID, err)
	}

	return printJSON(res)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
