package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/widgetbus/widgetbus/internal/bridge"
	"github.com/widgetbus/widgetbus/internal/contract"
	"github.com/widgetbus/widgetbus/internal/job"
	"github.com/widgetbus/widgetbus/internal/snapshot"
	"github.com/widgetbus/widgetbus/internal/store"
	"github.com/widgetbus/widgetbus/internal/widget"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a simulated job through the full pipeline",
	RunE:  runDemo,
}

func runDemo(_ *cobra.Command, _ []string) error {
	fmt.Printf("%s widgetbus demo — one metric widget fed by a simulated job\n\n", logo)

	st := store.New()
	sink, err := snapshot.NewFileSink(filepath.Join(os.TempDir(), "widgetbus-demo", "snapshot.json"))
	if err != nil {
		return err
	}
	w := snapshot.NewWriter(st, sink, 50*time.Millisecond, 200*time.Millisecond)

	con, err := widget.NewConsumer(st, "demo.cpu", "demo-viewer", contract.WidgetMetric)
	if err != nil {
		return err
	}
	defer con.Close()

	cancel := con.Subscribe(func(v any) {
		if v == nil {
			fmt.Println("  widget: (no data)")
			return
		}
		m := v.(contract.MetricData)
		fmt.Printf("  widget: %s = %.1f%s\n", m.Label, m.Value, deref(m.Unit))
	})
	defer cancel()

	pub, err := widget.NewPublisher(st, "demo.cpu", "bridge-demo", contract.WidgetMetric, widget.WithWriter(w))
	if err != nil {
		return err
	}

	feed := job.NewFeed()
	br, err := bridge.Connect(feed, "job-42", pub, bridge.Options{
		Filter: bridge.OnStatus(job.StatusProcessing, job.StatusCompleted),
	})
	if err != nil {
		return err
	}

	fmt.Println("Emitting job updates:")
	for i, load := range []float64{31.5, 64.2, 48.9} {
		status := job.StatusProcessing
		if i == 2 {
			status = job.StatusCompleted
		}
		result := fmt.Sprintf(`{"label":"CPU load","value":%.1f,"unit":"%%"}`, load)
		fmt.Printf("  job: %s value=%.1f\n", status, load)
		feed.Emit(job.Update{ID: "job-42", Status: status, Result: &result})
	}

	// A malformed result is rejected and recorded; the bridge survives.
	bad := `{"value":"not a number"}`
	feed.Emit(job.Update{ID: "job-42", Status: job.StatusCompleted, Result: &bad})

	status := br.Status()
	fmt.Printf("\nBridge: connected=%v updates=%d lastError=%v\n", status.Connected, status.Updates, status.LastError)

	br.Disconnect()
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Printf("Snapshot written to %s (%d save(s))\n", sink.Path(), w.Writes())
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
