package dashboard

import (
	"fmt"

	"github.com/widgetbus/widgetbus/internal/bridge"
	"github.com/widgetbus/widgetbus/internal/job"
	"github.com/widgetbus/widgetbus/internal/snapshot"
	"github.com/widgetbus/widgetbus/internal/store"
	"github.com/widgetbus/widgetbus/internal/widget"
)

// Dashboard is a built definition: its managed bridges plus the seed
// publishers holding seeded channels alive.
type Dashboard struct {
	Manager *bridge.Manager
	seeds   []*widget.Publisher
}

// Build wires a definition into st: one seed publisher per seeded widget and
// one managed bridge per bridge declaration, all feeding the debounced
// snapshot writer. On any failure everything built so far is torn down.
func Build(def *Definition, st *store.Store, src job.Source, w *snapshot.Writer) (*Dashboard, error) {
	d := &Dashboard{Manager: bridge.NewManager()}

	for _, wd := range def.Widgets {
		if wd.Seed == nil {
			continue
		}
		opts := []widget.Option{widget.WithInitial(wd.Seed)}
		if w != nil {
			opts = append(opts, widget.WithWriter(w))
		}
		pub, err := widget.NewPublisher(st, wd.Channel, "seed-"+wd.Channel, wd.Type, opts...)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("seed widget %s: %w", wd.Channel, err)
		}
		d.seeds = append(d.seeds, pub)
	}

	for _, bd := range def.Bridges {
		wt, _ := def.WidgetType(bd.Channel)
		var opts []widget.Option
		if w != nil {
			opts = append(opts, widget.WithWriter(w))
		}
		pub, err := widget.NewPublisher(st, bd.Channel, "bridge-"+bd.Name, wt, opts...)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("bridge %s: %w", bd.Name, err)
		}

		var bopts bridge.Options
		if len(bd.OnStatus) > 0 {
			bopts.Filter = bridge.OnStatus(bd.OnStatus...)
		}
		br, err := bridge.Connect(src, bd.Job, pub, bopts)
		if err != nil {
			pub.Close()
			d.Close()
			return nil, fmt.Errorf("bridge %s: %w", bd.Name, err)
		}
		d.Manager.Register(bd.Name, br)
	}

	return d, nil
}

// Close disconnects every bridge and releases the seed registrations.
func (d *Dashboard) Close() {
	d.Manager.DisconnectAll()
	for _, p := range d.seeds {
		p.Close()
	}
	d.seeds = nil
}
