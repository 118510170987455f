package simauto

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gridauto/internal/coerce"
	"gridauto/internal/table"
)

// GetParametersSingleElement fetches the given fields for one object.
// The values slice corresponds 1:1 with fields: key fields carry the
// identifying values, the rest are typically zero.
func (s *Session) GetParametersSingleElement(ctx context.Context, objectType string, fields []string, values []any) (table.Row, error) {
	if len(fields) != len(values) {
		return table.Row{}, fmt.Errorf("%s: %d fields but %d values", objectType, len(fields), len(values))
	}

	cat, err := s.Catalog(ctx, objectType)
	if err != nil {
		return table.Row{}, err
	}

	payload, err := s.Call(ctx, "GetParametersSingleElement", objectType, toAnySlice(fields), values)
	if err != nil {
		return table.Row{}, err
	}
	if len(payload) == 0 {
		return table.Row{}, &ShapeError{ObjectType: objectType, Row: 0, Want: len(fields), Got: 0}
	}

	tbl, err := normalizeTable(objectType, fields, cat, payload)
	if err != nil {
		return table.Row{}, err
	}
	return tbl.Row(0), nil
}

// GetParametersMultipleElement fetches the given fields for every object
// of the type, optionally restricted by a server-side advanced filter.
// An object type with no instances yields an empty table.
func (s *Session) GetParametersMultipleElement(ctx context.Context, objectType string, fields []string, filterName string) (*table.Table, error) {
	cat, err := s.Catalog(ctx, objectType)
	if err != nil {
		return nil, err
	}
	return s.fetchMultiple(ctx, "GetParametersMultipleElement", objectType, fields, cat, filterName)
}

// ObjectData fetches every catalog field for every object of the type.
func (s *Session) ObjectData(ctx context.Context, objectType string, filterName string) (*table.Table, error) {
	cat, err := s.Catalog(ctx, objectType)
	if err != nil {
		return nil, err
	}
	return s.fetchMultiple(ctx, "GetParametersMultipleElement", objectType, cat.FieldNames(), cat, filterName)
}

// ListOfDevices fetches the key fields of every object of the type.
func (s *Session) ListOfDevices(ctx context.Context, objectType string, filterName string) (*table.Table, error) {
	cat, err := s.Catalog(ctx, objectType)
	if err != nil {
		return nil, err
	}

	payload, err := s.Call(ctx, "ListOfDevices", objectType, filterName)
	if err != nil {
		return nil, err
	}
	return s.normalizeMultiple(objectType, cat.Keys, cat, payload)
}

func (s *Session) fetchMultiple(ctx context.Context, function, objectType string, fields []string, cat *FieldCatalog, filterName string) (*table.Table, error) {
	payload, err := s.Call(ctx, function, objectType, toAnySlice(fields), filterName)
	if err != nil {
		return nil, err
	}
	return s.normalizeMultiple(objectType, fields, cat, payload)
}

func (s *Session) normalizeMultiple(objectType string, fields []string, cat *FieldCatalog, payload []any) (*table.Table, error) {
	if payloadAbsent(payload) {
		return normalizeTable(objectType, fields, cat, nil)
	}

	rows, err := transposeColumns(objectType, fields, payload)
	if err != nil {
		return nil, err
	}
	tbl, err := normalizeTable(objectType, fields, cat, rows)
	if err != nil {
		return nil, err
	}
	tbl.SortBy("BusNum")
	return tbl, nil
}

// ChangeParametersSingleElement sets field values for one object. The
// fields must include the object type's key fields. No verification is
// performed; see ChangeAndConfirm.
func (s *Session) ChangeParametersSingleElement(ctx context.Context, objectType string, fields []string, values []any) error {
	if len(fields) != len(values) {
		return fmt.Errorf("%s: %d fields but %d values", objectType, len(fields), len(values))
	}
	_, err := s.Call(ctx, "ChangeParametersSingleElement", objectType, toAnySlice(fields), values)
	return err
}

// ChangeParametersMultipleElement sets field values for multiple objects
// of the same type in one call. No verification is performed.
func (s *Session) ChangeParametersMultipleElement(ctx context.Context, objectType string, fields []string, rows [][]any) error {
	_, err := s.Call(ctx, "ChangeParametersMultipleElement", objectType, toAnySlice(fields), rowsToAny(rows))
	return err
}

// ChangeAndConfirm sets field values for multiple objects, then re-reads
// them and verifies the server respected the command. Both sides of the
// comparison are coerced to declared types first; numeric fields compare
// within tolerance, strings exactly. Fields configured as verify-skip for
// the object type are written but not compared (their values legitimately
// change after a solve). On mismatch a VerificationError enumerates every
// offending (row, field) pair; the change stays applied, since the server
// has no rollback.
func (s *Session) ChangeAndConfirm(ctx context.Context, objectType string, fields []string, rows [][]any) error {
	cat, err := s.Catalog(ctx, objectType)
	if err != nil {
		return err
	}

	keyIdx, err := keyIndexes(objectType, fields, cat)
	if err != nil {
		return err
	}

	cleaned, err := coerceRows(objectType, fields, cat, rows)
	if err != nil {
		return err
	}

	if err := s.ChangeParametersMultipleElement(ctx, objectType, fields, cleaned); err != nil {
		return err
	}

	readBack, err := s.GetParametersMultipleElement(ctx, objectType, fields, "")
	if err != nil {
		return err
	}

	byKey := make(map[string]table.Row, readBack.RowCount())
	for _, row := range readBack.Rows() {
		byKey[rowKey(row.Values(), keyIdx)] = row
	}

	skip := s.verifySkip[fold(objectType)]
	var mismatches []FieldMismatch
	for i, row := range cleaned {
		got, found := byKey[rowKey(row, keyIdx)]
		for j, field := range fields {
			if isKeyIndex(keyIdx, j) {
				continue
			}
			if _, skipped := skip[fold(field)]; skipped {
				continue
			}
			if !found {
				mismatches = append(mismatches, FieldMismatch{Row: i, Field: field, Want: row[j]})
				continue
			}
			gotValue := got.Values()[j]
			fieldType, _ := cat.Type(field)
			if !valuesMatch(row[j], gotValue, fieldType, s.tolerance) {
				mismatches = append(mismatches, FieldMismatch{Row: i, Field: field, Want: row[j], Got: gotValue})
			}
		}
	}

	if len(mismatches) > 0 {
		return &VerificationError{ObjectType: objectType, Mismatches: mismatches}
	}
	return nil
}

// BatchChange applies one single-element change call per row. The server
// has no native batch-set, so this is a client-side loop: the first
// failing row aborts immediately, leaving earlier rows committed on the
// server and later rows untouched. The returned count is the number of
// rows committed.
func (s *Session) BatchChange(ctx context.Context, objectType string, fields []string, rows [][]any) (int, error) {
	for i, row := range rows {
		if err := s.ChangeParametersSingleElement(ctx, objectType, fields, row); err != nil {
			return i, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return len(rows), nil
}

// powerFlowFields lists the fields returned by PowerFlowResults per
// object type.
var powerFlowFields = map[string][]string{
	"bus":    {"BusNum", "BusName", "BusPUVolt", "BusAngle", "BusNetMW", "BusNetMVR"},
	"gen":    {"BusNum", "GenID", "GenMW", "GenMVR"},
	"load":   {"BusNum", "LoadID", "LoadMW", "LoadMVR"},
	"shunt":  {"BusNum", "ShuntID", "ShuntMW", "ShuntMVR"},
	"branch": {"BusNum", "BusNum:1", "LineCircuit", "LineMW", "LineMW:1", "LineMVR", "LineMVR:1"},
}

// PowerFlowResults fetches the standard power-flow result fields for one
// of the supported object types.
func (s *Session) PowerFlowResults(ctx context.Context, objectType string) (*table.Table, error) {
	fields, ok := powerFlowFields[strings.ToLower(strings.TrimSpace(objectType))]
	if !ok {
		return nil, fmt.Errorf("unsupported object type %q for power flow results", objectType)
	}
	return s.GetParametersMultipleElement(ctx, objectType, fields, "")
}

func keyIndexes(objectType string, fields []string, cat *FieldCatalog) ([]int, error) {
	idx := make([]int, 0, len(cat.Keys))
	for _, key := range cat.Keys {
		found := -1
		for i, field := range fields {
			if fold(field) == fold(key) {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, fmt.Errorf("%s: fields must include key field %s", objectType, key)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

func isKeyIndex(keyIdx []int, i int) bool {
	for _, k := range keyIdx {
		if k == i {
			return true
		}
	}
	return false
}

func coerceRows(objectType string, fields []string, cat *FieldCatalog, rows [][]any) ([][]any, error) {
	out := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(fields) {
			return nil, &ShapeError{ObjectType: objectType, Row: i, Want: len(fields), Got: len(row)}
		}
		cleaned := make([]any, len(row))
		for j, cell := range row {
			fieldType, _ := cat.Type(fields[j])
			value, err := coerce.Value(cell, fieldType)
			if err != nil {
				return nil, &ConversionError{ObjectType: objectType, Field: fields[j], Row: i, Value: cell, Err: err}
			}
			cleaned[j] = value
		}
		out[i] = cleaned
	}
	return out, nil
}

func rowKey(values []any, keyIdx []int) string {
	parts := make([]string, len(keyIdx))
	for i, idx := range keyIdx {
		parts[i] = coerce.Format(values[idx])
	}
	return strings.Join(parts, "\x1f")
}

func valuesMatch(want, got any, fieldType coerce.FieldType, tolerance float64) bool {
	if fieldType.Numeric() {
		wf, wok := numericValue(want)
		gf, gok := numericValue(got)
		if wok && gok {
			return math.Abs(wf-gf) <= 1e-8+tolerance*math.Abs(gf)
		}
	}
	return coerce.Format(want) == coerce.Format(got)
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func rowsToAny(rows [][]any) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}
