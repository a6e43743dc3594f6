package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/widgetbus/widgetbus/internal/config"
	"github.com/widgetbus/widgetbus/internal/snapshot"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show widgetbus status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s widgetbus Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:   %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	snapPath := cfg.SnapshotPath()
	_, snapErr := os.Stat(snapPath)
	snapMark := "✗"
	if snapErr == nil {
		snapMark = "✓"
	}
	fmt.Printf("Snapshot: %s %s\n", snapPath, snapMark)
	fmt.Printf("Source:   %s\n", cfg.Source.URL)
	fmt.Printf("Debounce: %s (max %s)\n\n", cfg.DebounceWait(), cfg.DebounceMaxWait())

	if snapErr != nil {
		return nil
	}

	sink, err := snapshot.NewFileSink(snapPath)
	if err != nil {
		return err
	}
	data, err := sink.Load()
	if err != nil {
		fmt.Printf("  (could not read snapshot: %v)\n", err)
		return nil
	}

	fmt.Printf("Persisted channels: %d\n", len(data))
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
