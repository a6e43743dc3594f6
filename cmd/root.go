// Package cmd implements the widgetbus CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "⊞"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "widgetbus",
	Short: logo + " widgetbus — typed dashboard channel registry",
	Long:  logo + " widgetbus — a typed publish/subscribe registry bridging background jobs to dashboard widgets",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(schemasCmd)
}
