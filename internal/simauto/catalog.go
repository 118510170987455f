package simauto

import (
	"context"
	"fmt"
	"sort"

	"gridauto/internal/coerce"
)

// Field describes one field of an object type.
type Field struct {
	Name        string
	Type        coerce.FieldType
	Description string
	Display     string
}

// FieldCatalog is the cached metadata for one object type: every field
// with its type, plus the ordered key fields that uniquely identify an
// instance. Catalogs are immutable once built.
type FieldCatalog struct {
	ObjectType string
	Keys       []string
	Fields     []Field

	types map[string]coerce.FieldType
}

// FieldNames returns all field names in catalog order.
func (c *FieldCatalog) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// Type resolves a field's declared type, matching case-insensitively.
func (c *FieldCatalog) Type(field string) (coerce.FieldType, bool) {
	t, ok := c.types[fold(field)]
	return t, ok
}

// HasField reports whether the catalog knows the field.
func (c *FieldCatalog) HasField(field string) bool {
	_, ok := c.types[fold(field)]
	return ok
}

// Catalog returns the field catalog for an object type, fetching it from
// the server on first use. Repeated lookups within a session return the
// identical cached instance without any server calls. A catalog is only
// stored after both underlying calls succeed; partial failures leave the
// cache untouched.
func (s *Session) Catalog(ctx context.Context, objectType string) (*FieldCatalog, error) {
	key := fold(objectType)

	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if cat, ok := s.catalogs[key]; ok {
		return cat, nil
	}

	cat, err := s.fetchCatalog(ctx, objectType)
	if err != nil {
		return nil, err
	}
	s.catalogs[key] = cat
	return cat, nil
}

// KeyFields returns the ordered key-field names for an object type.
func (s *Session) KeyFields(ctx context.Context, objectType string) ([]string, error) {
	cat, err := s.Catalog(ctx, objectType)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(cat.Keys))
	copy(keys, cat.Keys)
	return keys, nil
}

func (s *Session) fetchCatalog(ctx context.Context, objectType string) (*FieldCatalog, error) {
	keysPayload, err := s.Call(ctx, "GetKeyFieldList", objectType)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(keysPayload))
	for _, raw := range keysPayload {
		keys = append(keys, coerce.Format(raw))
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("server returned no key fields for %s", objectType)
	}

	fieldsPayload, err := s.Call(ctx, "GetFieldList", objectType)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(fieldsPayload))
	for i, raw := range fieldsPayload {
		row, ok := raw.([]any)
		if !ok || len(row) < 3 {
			return nil, &ShapeError{ObjectType: objectType, Row: i, Want: fieldListWidth, Got: rowWidth(raw)}
		}
		f := Field{
			Name: coerce.Format(row[1]),
			Type: coerce.ParseFieldType(coerce.Format(row[2])),
		}
		if len(row) > 3 {
			f.Description = coerce.Format(row[3])
		}
		if len(row) > 4 {
			f.Display = coerce.Format(row[4])
		}
		fields = append(fields, f)
	}

	// The server usually answers sorted by field name; make it certain.
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	types := make(map[string]coerce.FieldType, len(fields))
	for _, f := range fields {
		types[fold(f.Name)] = f.Type
	}

	return &FieldCatalog{
		ObjectType: objectType,
		Keys:       keys,
		Fields:     fields,
		types:      types,
	}, nil
}

// fieldListWidth is the row width of GetFieldList payloads: key marker,
// internal name, data type, description, display name.
const fieldListWidth = 5

func rowWidth(raw any) int {
	if row, ok := raw.([]any); ok {
		return len(row)
	}
	return 1
}
