package simauto

import (
	"gridauto/internal/coerce"
	"gridauto/internal/table"
)

// normalizeTable converts a raw payload into a typed table with one
// column per requested field, in request order. An empty payload yields
// an empty table: absence of matching objects is a valid outcome, not a
// failure. The payload is assumed positionally aligned with the request;
// typing is by position, never by reordering labels.
func normalizeTable(objectType string, fields []string, cat *FieldCatalog, payload []any) (*table.Table, error) {
	columns := make([]table.Column, len(fields))
	for i, name := range fields {
		// A field the catalog does not know coerces as pass-through
		// rather than failing the whole result.
		fieldType, _ := cat.Type(name)
		columns[i] = table.Column{Name: name, Type: fieldType}
	}

	out := table.New(columns)
	if len(payload) == 0 {
		return out, nil
	}

	for i, raw := range asRows(payload) {
		row, ok := raw.([]any)
		if !ok || len(row) != len(fields) {
			return nil, &ShapeError{ObjectType: objectType, Row: i, Want: len(fields), Got: rowWidth(raw)}
		}

		typed := make([]any, len(row))
		for j, cell := range row {
			value, err := coerce.Value(cell, columns[j].Type)
			if err != nil {
				return nil, &ConversionError{
					ObjectType: objectType,
					Field:      columns[j].Name,
					Row:        i,
					Value:      cell,
					Err:        err,
				}
			}
			typed[j] = value
		}
		if err := out.AppendRow(typed); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// asRows shapes a payload into rows. A payload whose first element is a
// sequence is row-per-element; a flat sequence of scalars is one row.
func asRows(payload []any) []any {
	if len(payload) == 0 {
		return nil
	}
	if _, nested := payload[0].([]any); nested {
		return payload
	}
	return []any{payload}
}

// transposeColumns reorients a column-major payload (one array per
// field, as the server returns for multi-element gets) into rows.
func transposeColumns(objectType string, fields []string, payload []any) ([]any, error) {
	if len(payload) != len(fields) {
		return nil, &ShapeError{ObjectType: objectType, Row: 0, Want: len(fields), Got: len(payload)}
	}

	columns := make([][]any, len(payload))
	rowCount := -1
	for i, raw := range payload {
		col, ok := raw.([]any)
		if !ok {
			// A flat payload is a single object's values.
			return []any{payload}, nil
		}
		if rowCount == -1 {
			rowCount = len(col)
		} else if len(col) != rowCount {
			return nil, &ShapeError{ObjectType: objectType, Row: 0, Want: rowCount, Got: len(col)}
		}
		columns[i] = col
	}

	rows := make([]any, rowCount)
	for r := 0; r < rowCount; r++ {
		row := make([]any, len(columns))
		for c := range columns {
			row[c] = columns[c][r]
		}
		rows[r] = row
	}
	return rows, nil
}

// payloadAbsent reports a multi-element payload that signals "no objects
// of this type": empty, or all columns nil.
func payloadAbsent(payload []any) bool {
	if len(payload) == 0 {
		return true
	}
	for _, raw := range payload {
		if raw != nil {
			return false
		}
	}
	return true
}
