package bridge

import (
	"errors"
	"testing"

	"github.com/widgetbus/widgetbus/internal/contract"
	"github.com/widgetbus/widgetbus/internal/job"
	"github.com/widgetbus/widgetbus/internal/store"
	"github.com/widgetbus/widgetbus/internal/widget"
)

// newMetricPair registers a publisher and consumer on one metric channel.
func newMetricPair(t *testing.T, st *store.Store, channel string) (*widget.Publisher, *widget.Consumer) {
	t.Helper()
	pub, err := widget.NewPublisher(st, channel, "bridge-"+channel, contract.WidgetMetric)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	con, err := widget.NewConsumer(st, channel, "view-"+channel, contract.WidgetMetric)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return pub, con
}

// emit sends one update carrying result for jobID.
func emit(f *job.Feed, jobID string, status job.Status, result string) {
	u := job.Update{ID: jobID, Status: status}
	if result != "" {
		u.Result = &result
	}
	f.Emit(u)
}

// ─── Connect ───────────────────────────────────────────────────────────────

func TestConnect_PublishesTransformedResult(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	b, err := Connect(feed, "job-1", pub, Options{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":88}`)

	m, ok := con.Get().(contract.MetricData)
	if !ok {
		t.Fatalf("expected MetricData, got %T", con.Get())
	}
	if m.Value != 88 {
		t.Errorf("unexpected value: %+v", m)
	}

	s := b.Status()
	if !s.Connected || s.Updates != 1 || s.LastError != nil || s.LastUpdate.IsZero() {
		t.Errorf("unexpected status: %+v", s)
	}
}

func TestConnect_FilterSkipsUpdates(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	b, err := Connect(feed, "job-1", pub, Options{Filter: OnStatus(job.StatusCompleted)})
	if err != nil {
		t.Fatal(err)
	}

	emit(feed, "job-1", job.StatusProcessing, `{"label":"CPU","value":10}`)
	if con.Get() != nil {
		t.Fatal("filtered update must not publish")
	}

	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":20}`)
	if m := con.Get().(contract.MetricData); m.Value != 20 {
		t.Errorf("expected 20, got %+v", m)
	}
	if b.Status().Updates != 1 {
		t.Errorf("expected 1 applied update, got %d", b.Status().Updates)
	}
}

func TestConnect_NilResultSkipped(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	b, _ := Connect(feed, "job-1", pub, Options{})
	feed.Emit(job.Update{ID: "job-1", Status: job.StatusProcessing})

	if con.Get() != nil {
		t.Error("result-less update must not publish")
	}
	if s := b.Status(); s.Updates != 0 || s.LastError != nil {
		t.Errorf("unexpected status: %+v", s)
	}
}

func TestConnect_OtherJobsIgnored(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	Connect(feed, "job-1", pub, Options{})
	emit(feed, "job-2", job.StatusCompleted, `{"label":"CPU","value":1}`)

	if con.Get() != nil {
		t.Error("bridge must only react to its own job")
	}
}

func TestConnect_TerminalStatusKeepsListening(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	b, _ := Connect(feed, "job-1", pub, Options{})
	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":1}`)
	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":2}`)

	if m := con.Get().(contract.MetricData); m.Value != 2 {
		t.Errorf("expected second result applied, got %+v", m)
	}
	if s := b.Status(); !s.Connected || s.Updates != 2 {
		t.Errorf("bridge must survive terminal statuses: %+v", s)
	}
}

// ─── Failure handling ──────────────────────────────────────────────────────

func TestConnect_TransformFailureRecorded(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	b, _ := Connect(feed, "job-1", pub, Options{})
	emit(feed, "job-1", job.StatusCompleted, `not json`)

	s := b.Status()
	var terr *TransformError
	if !errors.As(s.LastError, &terr) || terr.JobID != "job-1" {
		t.Fatalf("expected TransformError for job-1, got %v", s.LastError)
	}
	if !s.Connected || s.Updates != 0 {
		t.Errorf("one bad update must not tear the bridge down: %+v", s)
	}
	if con.Get() != nil {
		t.Error("failed transform must not publish")
	}

	// A later good update clears the error.
	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":5}`)
	if s := b.Status(); s.LastError != nil || s.Updates != 1 {
		t.Errorf("expected recovery, got %+v", s)
	}
}

func TestConnect_ValidationFailureRecorded(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, _ := newMetricPair(t, st, "cpu")

	b, _ := Connect(feed, "job-1", pub, Options{})
	emit(feed, "job-1", job.StatusCompleted, `{"value":5}`)

	var verr *contract.ValidationError
	if !errors.As(b.Status().LastError, &verr) {
		t.Fatalf("expected *contract.ValidationError, got %v", b.Status().LastError)
	}
	if b.Status().Updates != 0 {
		t.Error("rejected publish must not count as an applied update")
	}
}

func TestConnect_PanickingTransformRecovered(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, _ := newMetricPair(t, st, "cpu")

	b, _ := Connect(feed, "job-1", pub, Options{
		Transform: func(string) (any, error) { panic("boom") },
	})
	emit(feed, "job-1", job.StatusCompleted, `{}`)

	var terr *TransformError
	if !errors.As(b.Status().LastError, &terr) {
		t.Fatalf("expected TransformError from panic, got %v", b.Status().LastError)
	}
	if !b.Status().Connected {
		t.Error("panicking transform must not disconnect the bridge")
	}
}

func TestConnect_CustomTransform(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	Connect(feed, "job-1", pub, Options{
		Transform: func(raw string) (any, error) {
			return map[string]any{"label": "len", "value": float64(len(raw))}, nil
		},
	})
	emit(feed, "job-1", job.StatusCompleted, `abcd`)

	if m := con.Get().(contract.MetricData); m.Value != 4 {
		t.Errorf("expected 4, got %+v", m)
	}
}

// ─── Disconnect ────────────────────────────────────────────────────────────

func TestDisconnect_StopsDeliveryAndClosesPublisher(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	pub, con := newMetricPair(t, st, "cpu")

	b, _ := Connect(feed, "job-1", pub, Options{})
	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":1}`)

	b.Disconnect()
	b.Disconnect() // idempotent

	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":2}`)
	if m := con.Get().(contract.MetricData); m.Value != 1 {
		t.Errorf("disconnected bridge must not publish, got %+v", m)
	}
	if b.Status().Connected {
		t.Error("expected Connected=false after Disconnect")
	}
	if got := len(st.AllProducers()["cpu"]); got != 0 {
		t.Errorf("expected bridge publisher unregistered, got %d producers", got)
	}
}

// ─── Multi-channel bridges ─────────────────────────────────────────────────

func TestConnectMulti_IndependentBranches(t *testing.T) {
	st := store.New()
	feed := job.NewFeed()
	mPub, mCon := newMetricPair(t, st, "cpu")
	pPub, err := widget.NewPublisher(st, "log", "bridge-log", contract.WidgetParagraph)
	if err != nil {
		t.Fatal(err)
	}
	pCon, err := widget.NewConsumer(st, "log", "view-log", contract.WidgetParagraph)
	if err != nil {
		t.Fatal(err)
	}

	_, err = ConnectMulti(feed, "job-1", []Branch{
		{Publisher: mPub},
		{
			Publisher: pPub,
			Filter:    OnStatus(job.StatusCompleted),
			Transform: func(raw string) (any, error) {
				return map[string]any{"content": "result: " + raw}, nil
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	emit(feed, "job-1", job.StatusProcessing, `{"label":"CPU","value":3}`)
	if mCon.Get() == nil {
		t.Error("unfiltered branch must publish on processing updates")
	}
	if pCon.Get() != nil {
		t.Error("filtered branch must wait for completion")
	}

	emit(feed, "job-1", job.StatusCompleted, `{"label":"CPU","value":4}`)
	p, ok := pCon.Get().(contract.ParagraphData)
	if !ok || p.Content == "" {
		t.Errorf("expected paragraph from completed update, got %v", pCon.Get())
	}
}

func TestConnectMulti_RequiresBranches(t *testing.T) {
	if _, err := ConnectMulti(job.NewFeed(), "job-1", nil); err == nil {
		t.Fatal("expected error for empty branch list")
	}
	if _, err := ConnectMulti(job.NewFeed(), "job-1", []Branch{{}}); err == nil {
		t.Fatal("expected error for branch without publisher")
	}
}

// ─── OnStatus ──────────────────────────────────────────────────────────────

func TestOnStatus(t *testing.T) {
	f := OnStatus(job.StatusCompleted, job.StatusFailed)
	if !f(job.Update{Status: job.StatusFailed}) {
		t.Error("expected failed to pass")
	}
	if f(job.Update{Status: job.StatusPending}) {
		t.Error("expected pending to be filtered")
	}
}
