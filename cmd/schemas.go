package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/widgetbus/widgetbus/internal/contract"
)

var schemasOut string

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Export the JSON schema of every widget type",
	RunE:  runSchemas,
}

func init() {
	schemasCmd.Flags().StringVarP(&schemasOut, "out", "o", "", "Write one <type>.schema.json per widget type into this directory")
}

func runSchemas(_ *cobra.Command, _ []string) error {
	if schemasOut != "" {
		if err := os.MkdirAll(schemasOut, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	for _, t := range contract.Types() {
		data, err := contract.SchemaJSON(t)
		if err != nil {
			return fmt.Errorf("schema for %s: %w", t, err)
		}
		if schemasOut == "" {
			fmt.Printf("// %s\n%s\n", t, data)
			continue
		}
		path := filepath.Join(schemasOut, string(t)+".schema.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("✓ %s\n", path)
	}
	return nil
}
