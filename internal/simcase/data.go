package simcase

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gridauto/internal/coerce"
	"gridauto/internal/simauto"
)

func (c *Case) getSingle(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	fieldNames, err := paramStrings(params, 1)
	if err != nil {
		return failErr(err)
	}
	values, err := paramSlice(params, 2)
	if err != nil {
		return failErr(err)
	}
	if len(values) != len(fieldNames) {
		return fail("%d fields but %d values", len(fieldNames), len(values))
	}

	fields, reply2 := resolveFields(s, fieldNames)
	if fields == nil {
		return reply2
	}
	keyIdx, reply3 := keyPositions(s, fields)
	if keyIdx == nil {
		return reply3
	}

	rec, found, err := c.findRecord(s, fields, keyIdx, values)
	if err != nil {
		return failErr(err)
	}
	if !found {
		return fail("no %s matches the given key values", s.ObjectType)
	}

	payload := make([]any, len(fields))
	for i, f := range fields {
		payload[i] = pad(rec[f.Name])
	}
	return ok(payload...)
}

func (c *Case) getMultiple(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	fieldNames, err := paramStrings(params, 1)
	if err != nil {
		return failErr(err)
	}
	filter, err := paramString(params, 2)
	if err != nil {
		return failErr(err)
	}
	fields, reply2 := resolveFields(s, fieldNames)
	if fields == nil {
		return reply2
	}
	return c.columns(s, fields, filter)
}

func (c *Case) listOfDevices(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	filter, err := paramString(params, 1)
	if err != nil {
		return failErr(err)
	}
	fields, reply2 := resolveFields(s, s.keys())
	if fields == nil {
		return reply2
	}
	return c.columns(s, fields, filter)
}

// columns serializes matching records column-major: one array of padded
// cells per field, the layout the real server uses for multi-element
// results.
func (c *Case) columns(s *schema, fields []fieldDef, filter string) simauto.Reply {
	if filter != "" {
		return fail("advanced filter %s is not defined in the case", filter)
	}
	records := c.objects[s.ObjectType]
	if len(records) == 0 {
		return noData()
	}

	payload := make([]any, len(fields))
	for i, f := range fields {
		column := make([]any, len(records))
		for j, rec := range records {
			column[j] = pad(rec[f.Name])
		}
		payload[i] = column
	}
	return ok(payload...)
}

func (c *Case) changeSingle(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	fieldNames, err := paramStrings(params, 1)
	if err != nil {
		return failErr(err)
	}
	values, err := paramSlice(params, 2)
	if err != nil {
		return failErr(err)
	}
	return c.applyChange(s, fieldNames, [][]any{values})
}

func (c *Case) changeMultiple(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	fieldNames, err := paramStrings(params, 1)
	if err != nil {
		return failErr(err)
	}
	rawRows, err := paramSlice(params, 2)
	if err != nil {
		return failErr(err)
	}
	rows := make([][]any, len(rawRows))
	for i, raw := range rawRows {
		row, isSlice := raw.([]any)
		if !isSlice {
			return fail("row %d must be a list, got %T", i, raw)
		}
		rows[i] = row
	}
	return c.applyChange(s, fieldNames, rows)
}

func (c *Case) applyChange(s *schema, fieldNames []string, rows [][]any) simauto.Reply {
	fields, reply := resolveFields(s, fieldNames)
	if fields == nil {
		return reply
	}
	keyIdx, reply2 := keyPositions(s, fields)
	if keyIdx == nil {
		return reply2
	}

	for i, row := range rows {
		if len(row) != len(fields) {
			return fail("row %d has %d values for %d fields", i, len(row), len(fields))
		}

		coerced := make([]any, len(row))
		for j, raw := range row {
			value, err := coerce.Value(raw, fields[j].Type)
			if err != nil {
				return fail("row %d field %s: %s", i, fields[j].Name, err)
			}
			coerced[j] = value
		}

		rec, found, err := c.findRecord(s, fields, keyIdx, coerced)
		if err != nil {
			return failErr(err)
		}
		if !found {
			if !c.createIfNotFound {
				return fail("no %s matches the given key values and CreateIfNotFound is disabled", s.ObjectType)
			}
			rec = make(record, len(s.Fields))
			for _, f := range s.Fields {
				rec[f.Name] = zeroValue(f.Type)
			}
			c.objects[s.ObjectType] = append(c.objects[s.ObjectType], rec)
		}
		for j, f := range fields {
			rec[f.Name] = coerced[j]
		}
	}
	return ok()
}

// findRecord locates the record whose key fields match the key values
// embedded in a field/value pairing. Values are coerced before
// comparison so "3" and 3 identify the same object.
func (c *Case) findRecord(s *schema, fields []fieldDef, keyIdx []int, values []any) (record, bool, error) {
	keyWant := make(map[string]string, len(keyIdx))
	for _, idx := range keyIdx {
		f := fields[idx]
		value, err := coerce.Value(values[idx], f.Type)
		if err != nil {
			return nil, false, fmt.Errorf("key field %s: %w", f.Name, err)
		}
		keyWant[f.Name] = coerce.Format(value)
	}

	for _, rec := range c.objects[s.ObjectType] {
		matches := true
		for name, want := range keyWant {
			if coerce.Format(rec[name]) != want {
				matches = false
				break
			}
		}
		if matches {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

func (c *Case) saveCase(params []any) simauto.Reply {
	path, err := paramString(params, 0)
	if err != nil {
		return failErr(err)
	}
	fileType, err := paramString(params, 1)
	if err != nil {
		return failErr(err)
	}
	overwrite, err := paramBool(params, 2)
	if err != nil {
		return failErr(err)
	}
	if path == "" {
		return fail("SaveCase requires a file name")
	}
	if !overwrite {
		if _, statErr := os.Stat(path); statErr == nil {
			return fail("file %s already exists and overwrite is disabled", path)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s case export\n", fileType)
	for _, objectType := range []string{"bus", "gen", "load", "shunt", "branch"} {
		fmt.Fprintf(&b, "// %s: %d\n", objectType, len(c.objects[objectType]))
	}
	if writeErr := os.WriteFile(path, []byte(b.String()), 0o644); writeErr != nil {
		return fail("save case: %s", writeErr)
	}
	c.casePath = path
	return ok()
}

func (c *Case) processAuxFile(params []any) simauto.Reply {
	path, err := paramString(params, 0)
	if err != nil {
		return failErr(err)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		return fail("process aux file: %s", readErr)
	}
	for _, line := range strings.Split(string(content), "\n") {
		if solveCommand.MatchString(line) {
			c.solve()
		}
	}
	return ok()
}

func (c *Case) writeAuxFile(params []any) simauto.Reply {
	path, err := paramString(params, 0)
	if err != nil {
		return failErr(err)
	}
	filter, err := paramString(params, 1)
	if err != nil {
		return failErr(err)
	}
	objectType, err := paramString(params, 2)
	if err != nil {
		return failErr(err)
	}
	s, found := lookupSchema(objectType)
	if !found {
		return fail("object type %s does not exist", objectType)
	}
	appendTo, err := paramBool(params, 3)
	if err != nil {
		return failErr(err)
	}
	fieldNames, err := paramStrings(params, 4)
	if err != nil {
		return failErr(err)
	}
	if filter != "" {
		return fail("advanced filter %s is not defined in the case", filter)
	}
	if len(fieldNames) == 0 {
		for _, f := range s.Fields {
			fieldNames = append(fieldNames, f.Name)
		}
	}
	fields, reply2 := resolveFields(s, fieldNames)
	if fields == nil {
		return reply2
	}

	var b strings.Builder
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	fmt.Fprintf(&b, "DATA (%s, [%s])\n{\n", s.ObjectType, strings.Join(names, ", "))
	for _, rec := range c.objects[s.ObjectType] {
		cells := make([]string, len(fields))
		for i, f := range fields {
			if f.Type == coerce.String {
				cells[i] = strconv.Quote(coerce.Format(rec[f.Name]))
			} else {
				cells[i] = coerce.Format(rec[f.Name])
			}
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(cells, " "))
	}
	b.WriteString("}\n")

	flags := os.O_CREATE | os.O_WRONLY
	if appendTo {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, openErr := os.OpenFile(path, flags, 0o644)
	if openErr != nil {
		return fail("write aux file: %s", openErr)
	}
	defer file.Close()
	if _, writeErr := file.WriteString(b.String()); writeErr != nil {
		return fail("write aux file: %s", writeErr)
	}
	return ok()
}

func (c *Case) specificFieldList(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	variables, err := paramStrings(params, 1)
	if err != nil {
		return failErr(err)
	}

	var selected []fieldDef
	for _, name := range variables {
		if strings.EqualFold(name, "ALL") {
			selected = append(selected[:0], s.Fields...)
			break
		}
		f, found := s.field(name)
		if !found {
			return fail("%s has no field %s", s.ObjectType, name)
		}
		selected = append(selected, f)
	}

	rows := make([]any, len(selected))
	for i, f := range selected {
		rows[i] = []any{f.Name, baseName(f.Name), f.Display, f.Description}
	}
	return ok(rows...)
}

func (c *Case) specificFieldMaxNum(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	name, err := paramString(params, 1)
	if err != nil {
		return failErr(err)
	}

	max := int64(-1)
	for _, f := range s.Fields {
		if !strings.EqualFold(baseName(f.Name), name) {
			continue
		}
		n := locationNumber(f.Name)
		if n > max {
			max = n
		}
	}
	return ok(max)
}

func resolveFields(s *schema, names []string) ([]fieldDef, simauto.Reply) {
	fields := make([]fieldDef, len(names))
	for i, name := range names {
		f, found := s.field(name)
		if !found {
			return nil, fail("%s has no field %s", s.ObjectType, name)
		}
		fields[i] = f
	}
	return fields, simauto.Reply{}
}

// keyPositions locates every key field of the schema within the request
// field list. Data operations cannot identify objects without them.
func keyPositions(s *schema, fields []fieldDef) ([]int, simauto.Reply) {
	idx := make([]int, 0, 2)
	for _, key := range s.keys() {
		found := -1
		for i, f := range fields {
			if strings.EqualFold(f.Name, key) {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, fail("field list must include key field %s", key)
		}
		idx = append(idx, found)
	}
	return idx, simauto.Reply{}
}

// baseName strips a ":N" location suffix: "LineMW:1" → "LineMW".
func baseName(field string) string {
	if i := strings.IndexByte(field, ':'); i >= 0 {
		return field[:i]
	}
	return field
}

// locationNumber extracts the ":N" suffix, 0 when absent.
func locationNumber(field string) int64 {
	i := strings.IndexByte(field, ':')
	if i < 0 {
		return 0
	}
	n, err := strconv.ParseInt(field[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
