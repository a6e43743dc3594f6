package job

import "testing"

func TestFeed_EmitReachesSubscribers(t *testing.T) {
	f := NewFeed()

	var got []Update
	cancel, err := f.Subscribe("job-1", func(u Update) { got = append(got, u) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	f.Emit(Update{ID: "job-1", Status: StatusProcessing})
	f.Emit(Update{ID: "job-1", Status: StatusCompleted})

	if len(got) != 2 || got[0].Status != StatusProcessing || got[1].Status != StatusCompleted {
		t.Errorf("unexpected deliveries: %v", got)
	}
}

func TestFeed_PerJobIsolation(t *testing.T) {
	f := NewFeed()

	count := 0
	cancel, _ := f.Subscribe("job-1", func(Update) { count++ })
	defer cancel()

	f.Emit(Update{ID: "job-2", Status: StatusCompleted})
	if count != 0 {
		t.Error("subscriber must only see its own job")
	}
}

func TestFeed_CancelStopsDelivery(t *testing.T) {
	f := NewFeed()

	count := 0
	cancel, _ := f.Subscribe("job-1", func(Update) { count++ })
	cancel()

	f.Emit(Update{ID: "job-1", Status: StatusCompleted})
	if count != 0 {
		t.Errorf("expected no delivery after cancel, got %d", count)
	}
}

func TestFeed_DeliversInSubscriptionOrder(t *testing.T) {
	f := NewFeed()

	var order []string
	c1, _ := f.Subscribe("job-1", func(Update) { order = append(order, "first") })
	defer c1()
	c2, _ := f.Subscribe("job-1", func(Update) { order = append(order, "second") })
	defer c2()

	f.Emit(Update{ID: "job-1"})
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Error("pending and processing are not terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed are terminal")
	}
}
