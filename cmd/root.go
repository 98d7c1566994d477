package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command; subcommands run the server and the
// operational tooling.
var rootCmd = &cobra.Command{
	Use:   "lending-platform",
	Short: "Toy lending library platform",
	Long: `Multi-tenant toy lending library platform.

Run "lending-platform serve" to start the API server, "seed" to load demo
data, or "superuser" to create a platform administrator.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
