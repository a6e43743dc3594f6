package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// checker is implemented by payloads with cross-field shape rules that
// struct tags cannot express.
type checker interface{ check() error }

// Contract couples a widget type with its payload struct and the
// required/optional split derived from the struct's widget tags.
type Contract struct {
	Type     WidgetType
	target   reflect.Type
	required []string // json names of required fields
	optional []string // json names of optional (nullable) fields
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// contracts is the full set of known contracts. define panics on a
// malformed payload struct, so a bad contract fails at process start.
var contracts = map[WidgetType]*Contract{
	WidgetParagraph: define[ParagraphData](WidgetParagraph),
	WidgetTable:     define[TableData](WidgetTable),
	WidgetMetric:    define[MetricData](WidgetMetric),
	WidgetChart:     define[ChartData](WidgetChart),
}

// Types lists all widget types in declaration order.
func Types() []WidgetType {
	return []WidgetType{WidgetParagraph, WidgetTable, WidgetMetric, WidgetChart}
}

// For returns the contract bound to t.
func For(t WidgetType) (*Contract, bool) {
	c, ok := contracts[t]
	return c, ok
}

// Validate checks v against the contract for t and returns the normalized
// typed payload. It never panics; failures come back as *ValidationError.
func Validate(t WidgetType, v any) (any, error) {
	c, ok := For(t)
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
	return c.Validate(v)
}

// Parse is the fail-fast variant of Validate: it panics on an invalid value,
// for call sites where a violation is a programming error.
func Parse(t WidgetType, v any) any {
	out, err := Validate(t, v)
	if err != nil {
		panic(err)
	}
	return out
}

// Validate checks v against the contract and returns the normalized typed
// payload value. v may be the payload struct (or a pointer to it), a
// map[string]any, or raw JSON as string/[]byte.
func (c *Contract) Validate(v any) (any, error) {
	payload, verr := c.normalize(v)
	if verr != nil {
		return nil, verr
	}
	if err := validate.Struct(payload); err != nil {
		return nil, c.structError(err)
	}
	if ch, ok := payload.(checker); ok {
		if err := ch.check(); err != nil {
			return nil, newValidationError(c.Type, FieldError{Detail: err.Error()})
		}
	}
	return payload, nil
}

// normalize coerces v into the contract's payload struct value.
func (c *Contract) normalize(v any) (any, *ValidationError) {
	switch raw := v.(type) {
	case nil:
		return nil, newValidationError(c.Type, FieldError{Detail: "value is nil"})
	case json.RawMessage:
		return c.decodeJSON([]byte(raw))
	case []byte:
		return c.decodeJSON(raw)
	case string:
		return c.decodeJSON([]byte(raw))
	case map[string]any:
		return c.decodeMap(raw)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.IsValid() && rv.Type() == c.target {
		return rv.Interface(), nil
	}
	return nil, newValidationError(c.Type,
		FieldError{Detail: fmt.Sprintf("unsupported payload type %T", v)})
}

func (c *Contract) decodeJSON(raw []byte) (any, *ValidationError) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, newValidationError(c.Type,
			FieldError{Detail: "not a JSON object: " + err.Error()})
	}
	return c.decodeMap(m)
}

func (c *Contract) decodeMap(m map[string]any) (any, *ValidationError) {
	var fields []FieldError
	for _, name := range c.required {
		val, ok := m[name]
		switch {
		case !ok:
			fields = append(fields, FieldError{Path: name, Detail: "required field is missing"})
		case val == nil:
			fields = append(fields, FieldError{Path: name, Detail: "required field is null"})
		}
	}
	if len(fields) > 0 {
		return nil, newValidationError(c.Type, fields...)
	}

	out := reflect.New(c.target)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out.Interface(),
	})
	if err != nil {
		return nil, newValidationError(c.Type, FieldError{Detail: err.Error()})
	}
	if err := dec.Decode(m); err != nil {
		return nil, c.decodeError(err)
	}
	return out.Elem().Interface(), nil
}

// decodeError unpacks mapstructure's joined errors into per-field entries.
func (c *Contract) decodeError(err error) *ValidationError {
	var merr *mapstructure.Error
	if errors.As(err, &merr) {
		fields := make([]FieldError, 0, len(merr.Errors))
		for _, msg := range merr.Errors {
			fields = append(fields, FieldError{Detail: msg})
		}
		return newValidationError(c.Type, fields...)
	}
	return newValidationError(c.Type, FieldError{Detail: err.Error()})
}

// structError converts validator failures into per-field entries.
func (c *Contract) structError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Path:   strings.ToLower(fe.Field()),
				Detail: fmt.Sprintf("failed %q constraint (got %v)", fe.Tag(), fe.Value()),
			})
		}
		return newValidationError(c.Type, fields...)
	}
	return newValidationError(c.Type, FieldError{Detail: err.Error()})
}

// define builds the contract for payload struct T, panicking on a
// definition error: every field needs a widget tag, and optional fields
// must be nullable so exported schemas can encode absence as null.
func define[T any](t WidgetType) *Contract {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	c := &Contract{Type: t, target: rt}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := jsonName(f)
		switch f.Tag.Get("widget") {
		case "required":
			c.required = append(c.required, name)
		case "optional":
			if !nillable(f.Type) {
				panic(fmt.Sprintf("contract %s: optional field %s must be nullable", t, f.Name))
			}
			c.optional = append(c.optional, name)
		default:
			panic(fmt.Sprintf("contract %s: field %s has no widget tag", t, f.Name))
		}
	}
	return c
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return f.Name
	}
	return tag
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}
