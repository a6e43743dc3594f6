// Package contract binds each widget type to the payload shape its channel
// may carry. Contracts are defined once at init and are the single source of
// truth for validation and for the exported JSON schemas.
//
// Optional fields are pointer-typed: a nil pointer is the explicit "absent"
// sentinel, distinct from a field that was never provided. Structured-output
// consumers of the exported schemas require every field to be present in the
// shape, so an optional field that is not nullable is a definition error.
package contract

import "fmt"

// WidgetType tags a channel with the payload contract it carries.
type WidgetType string

const (
	WidgetParagraph WidgetType = "paragraph"
	WidgetTable     WidgetType = "table"
	WidgetMetric    WidgetType = "metric"
	WidgetChart     WidgetType = "chart"
)

// ParagraphData is a block of text, optionally rendered as markdown.
type ParagraphData struct {
	Content  string `json:"content"  widget:"required" validate:"required"`
	Markdown *bool  `json:"markdown" widget:"optional"`
}

// MetricData is a single labelled number, e.g. {label:"CPU", value:42}.
type MetricData struct {
	Label string   `json:"label" widget:"required" validate:"required"`
	Value float64  `json:"value" widget:"required"`
	Unit  *string  `json:"unit"  widget:"optional"`
	Delta *float64 `json:"delta" widget:"optional"`
}

// TableData is a column-headed grid. Cells are left loosely typed because
// job transforms emit mixed strings and numbers.
type TableData struct {
	Columns []string `json:"columns" widget:"required" validate:"required,min=1"`
	Rows    [][]any  `json:"rows"    widget:"required"`
	Caption *string  `json:"caption" widget:"optional"`
}

// ChartSeries is one named line/bar of a chart.
type ChartSeries struct {
	Name   string    `json:"name"   validate:"required"`
	Points []float64 `json:"points" validate:"required"`
}

// ChartData is a labelled multi-series chart.
type ChartData struct {
	Title  *string       `json:"title"  widget:"optional"`
	Labels []string      `json:"labels" widget:"required" validate:"required,min=1"`
	Series []ChartSeries `json:"series" widget:"required" validate:"required,min=1,dive"`
}

// check enforces that every row matches the column count.
func (t TableData) check() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("rows[%d]: expected %d cells, got %d", i, len(t.Columns), len(row))
		}
	}
	return nil
}

// check enforces that every series has one point per label.
func (c ChartData) check() error {
	for i, s := range c.Series {
		if len(s.Points) != len(c.Labels) {
			return fmt.Errorf("series[%d]: expected %d points, got %d", i, len(c.Labels), len(s.Points))
		}
	}
	return nil
}
