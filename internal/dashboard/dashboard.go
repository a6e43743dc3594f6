// Package dashboard loads a declarative dashboard definition (the widgets on
// a board and the job bridges feeding them) and wires it into a running
// registry.
package dashboard

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/widgetbus/widgetbus/internal/contract"
	"github.com/widgetbus/widgetbus/internal/job"
)

// WidgetDef declares one widget: its channel id, payload type, and an
// optional seed value published before any job delivers data.
type WidgetDef struct {
	Channel string              `yaml:"channel" validate:"required"`
	Type    contract.WidgetType `yaml:"type"    validate:"required"`
	Title   string              `yaml:"title"`
	Seed    map[string]any      `yaml:"seed"`
}

// BridgeDef declares one job-to-channel bridge. An empty onStatus list
// reacts to every result-bearing update.
type BridgeDef struct {
	Name     string       `yaml:"name"    validate:"required"`
	Job      string       `yaml:"job"     validate:"required"`
	Channel  string       `yaml:"channel" validate:"required"`
	OnStatus []job.Status `yaml:"onStatus"`
}

// Definition is a complete dashboard declaration.
type Definition struct {
	Name    string      `yaml:"name"`
	Widgets []WidgetDef `yaml:"widgets" validate:"required,min=1,dive"`
	Bridges []BridgeDef `yaml:"bridges" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and checks a dashboard definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dashboard %s: %w", path, err)
	}
	return Parse(data)
}

// Parse checks a dashboard definition document.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse dashboard: %w", err)
	}
	if err := validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("invalid dashboard: %w", err)
	}

	channels := make(map[string]contract.WidgetType, len(def.Widgets))
	for _, w := range def.Widgets {
		if _, ok := contract.For(w.Type); !ok {
			return nil, fmt.Errorf("widget %s: unknown type %q", w.Channel, w.Type)
		}
		if _, dup := channels[w.Channel]; dup {
			return nil, fmt.Errorf("widget %s: duplicate channel", w.Channel)
		}
		channels[w.Channel] = w.Type
	}

	names := make(map[string]struct{}, len(def.Bridges))
	for _, b := range def.Bridges {
		if _, ok := channels[b.Channel]; !ok {
			return nil, fmt.Errorf("bridge %s: channel %q not declared as a widget", b.Name, b.Channel)
		}
		if _, dup := names[b.Name]; dup {
			return nil, fmt.Errorf("bridge %s: duplicate name", b.Name)
		}
		names[b.Name] = struct{}{}
	}

	return &def, nil
}

// WidgetType returns the declared payload type of a channel.
func (d *Definition) WidgetType(channel string) (contract.WidgetType, bool) {
	for _, w := range d.Widgets {
		if w.Channel == channel {
			return w.Type, true
		}
	}
	return "", false
}
