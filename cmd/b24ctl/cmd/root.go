// Package cmd implements the b24ctl CLI commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/pkravchenko/b24-dealsync/internal/api/client"
)

var rootCmd = &cobra.Command{
	Use:   "b24ctl",
	Short: "CLI client for the b24-dealsync admin API",
	Long: "b24ctl is a command-line client for a running b24-dealsync server.\n" +
		"It lets you trigger the month-end date roll, reconcile individual\n" +
		"deals, and inspect the scheduler from the terminal.",
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(rollCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(jobsCmd())
}

func initConfig() {
	viper.SetEnvPrefix("B24CTL")
	viper.AutomaticEnv()
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
