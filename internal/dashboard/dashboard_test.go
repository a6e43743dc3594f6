package dashboard

import (
	"strings"
	"testing"

	"github.com/widgetbus/widgetbus/internal/contract"
	"github.com/widgetbus/widgetbus/internal/job"
	"github.com/widgetbus/widgetbus/internal/store"
	"github.com/widgetbus/widgetbus/internal/widget"
)

const validYAML = `
name: ops
widgets:
  - channel: ops.cpu
    type: metric
    seed: {label: "CPU", value: 0}
  - channel: ops.log
    type: paragraph
bridges:
  - name: cpu-poller
    job: job-cpu
    channel: ops.cpu
    onStatus: [COMPLETED]
`

// ─── Parse ─────────────────────────────────────────────────────────────────

func TestParse_Valid(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(def.Widgets) != 2 || len(def.Bridges) != 1 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if def.Bridges[0].OnStatus[0] != job.StatusCompleted {
		t.Errorf("unexpected onStatus: %v", def.Bridges[0].OnStatus)
	}
	if wt, ok := def.WidgetType("ops.cpu"); !ok || wt != contract.WidgetMetric {
		t.Errorf("unexpected widget type lookup: %v %v", wt, ok)
	}
}

func TestParse_RequiresWidgets(t *testing.T) {
	if _, err := Parse([]byte(`name: empty`)); err == nil {
		t.Fatal("expected error for definition without widgets")
	}
}

func TestParse_UnknownWidgetType(t *testing.T) {
	doc := `
widgets:
  - channel: a
    type: gauge
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "gauge") {
		t.Fatalf("expected unknown-type error, got %v", err)
	}
}

func TestParse_DuplicateChannel(t *testing.T) {
	doc := `
widgets:
  - channel: a
    type: metric
  - channel: a
    type: paragraph
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected duplicate-channel error")
	}
}

func TestParse_BridgeNeedsDeclaredChannel(t *testing.T) {
	doc := `
widgets:
  - channel: a
    type: metric
bridges:
  - name: b1
    job: j1
    channel: missing
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected undeclared-channel error, got %v", err)
	}
}

func TestParse_DuplicateBridgeName(t *testing.T) {
	doc := `
widgets:
  - channel: a
    type: metric
bridges:
  - name: b1
    job: j1
    channel: a
  - name: b1
    job: j2
    channel: a
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected duplicate-name error")
	}
}

// ─── Build ─────────────────────────────────────────────────────────────────

func TestBuild_SeedsAndBridges(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}

	st := store.New()
	feed := job.NewFeed()
	dash, err := Build(def, st, feed, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	con, err := widget.NewConsumer(st, "ops.cpu", "test-view", contract.WidgetMetric)
	if err != nil {
		t.Fatal(err)
	}
	defer con.Close()

	// The declared seed is live before any job output.
	if m := con.Get().(contract.MetricData); m.Value != 0 || m.Label != "CPU" {
		t.Fatalf("expected seed value, got %+v", m)
	}

	result := `{"label":"CPU","value":63}`
	feed.Emit(job.Update{ID: "job-cpu", Status: job.StatusCompleted, Result: &result})
	if m := con.Get().(contract.MetricData); m.Value != 63 {
		t.Fatalf("expected bridged value, got %+v", m)
	}

	b, ok := dash.Manager.Get("cpu-poller")
	if !ok || b.Status().Updates != 1 {
		t.Errorf("unexpected bridge state: ok=%v", ok)
	}

	dash.Close()
	result2 := `{"label":"CPU","value":99}`
	feed.Emit(job.Update{ID: "job-cpu", Status: job.StatusCompleted, Result: &result2})
	if m := con.Get().(contract.MetricData); m.Value != 63 {
		t.Errorf("closed dashboard must stop bridging, got %+v", m)
	}
}

func TestBuild_InvalidSeedFails(t *testing.T) {
	doc := `
widgets:
  - channel: a
    type: metric
    seed: {label: ""}
`
	def, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(def, store.New(), job.NewFeed(), nil); err == nil {
		t.Fatal("expected error for seed violating the contract")
	}
}
