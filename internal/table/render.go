package table

import (
	gptable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gridauto/internal/coerce"
)

func newWriter() gptable.Writer {
	tw := gptable.NewWriter()
	style := gptable.StyleRounded
	// Field names are case-significant; keep them out of the default
	// header uppercasing.
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw
}

func alignConfigs(numeric []bool) []gptable.ColumnConfig {
	configs := make([]gptable.ColumnConfig, 0, len(numeric))
	for i, isNumeric := range numeric {
		align := text.AlignLeft
		if isNumeric {
			align = text.AlignRight
		}
		configs = append(configs, gptable.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	return configs
}

// Render formats the table for terminal display. Numeric columns are
// right-aligned.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	tw := newWriter()

	header := make(gptable.Row, len(t.columns))
	numeric := make([]bool, len(t.columns))
	for i, c := range t.columns {
		header[i] = c.Name
		numeric[i] = c.Type.Numeric()
	}
	tw.AppendHeader(header)

	for _, row := range t.rows {
		r := make(gptable.Row, len(row))
		for i, v := range row {
			r[i] = coerce.Format(v)
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs(alignConfigs(numeric))
	return tw.Render()
}

// RenderStrings formats pre-formatted cells in the same style as
// Table.Render, for listings that are not query results. numeric marks
// columns to right-align; nil leaves every column left-aligned. Short
// rows are padded with empty cells.
func RenderStrings(headers []string, rows [][]string, numeric []bool) string {
	if len(headers) == 0 {
		return ""
	}

	tw := newWriter()

	header := make(gptable.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(gptable.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	if numeric == nil {
		numeric = make([]bool, len(headers))
	}
	tw.SetColumnConfigs(alignConfigs(numeric))
	return tw.Render()
}
