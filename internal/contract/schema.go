package contract

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema renders the contract as a JSON schema suitable for constraining a
// structured-output generator. Every field appears in the shape and is
// required; optional fields accept null instead of being omitted.
func (c *Contract) Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(reflect.New(c.target).Interface())

	for _, name := range c.optional {
		prop, ok := s.Properties.Get(name)
		if !ok {
			continue
		}
		s.Properties.Set(name, &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{prop, {Type: "null"}},
		})
	}

	var required []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		required = append(required, pair.Key)
	}
	s.Required = required
	s.Title = string(c.Type)

	return s
}

// SchemaJSON returns the indented JSON schema document for widget type t.
func SchemaJSON(t WidgetType) ([]byte, error) {
	c, ok := For(t)
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
	data, err := json.MarshalIndent(c.Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", t, err)
	}
	return append(data, '\n'), nil
}
