package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldType identifies how the automation server types a field. The server
// reports tags beyond the three known ones for composite and display-only
// fields; those are preserved verbatim and coerce as pass-through.
type FieldType string

const (
	Integer FieldType = "Integer"
	Real    FieldType = "Real"
	String  FieldType = "String"
)

// ParseFieldType normalizes a type tag reported by the server. Matching is
// case-insensitive; unrecognized tags are kept as-is after trimming.
func ParseFieldType(tag string) FieldType {
	trimmed := strings.TrimSpace(tag)
	switch strings.ToLower(trimmed) {
	case "integer":
		return Integer
	case "real":
		return Real
	case "string":
		return String
	default:
		return FieldType(trimmed)
	}
}

// Numeric reports whether values of this type compare numerically.
func (t FieldType) Numeric() bool {
	return t == Integer || t == Real
}

// Value converts a raw scalar from the server into a typed Go value.
// Integers become int64, reals float64, strings string. Unknown type tags
// return the raw value unmodified. A scalar that cannot be parsed for a
// numeric type is an error; it is never silently coerced to zero.
func Value(raw any, t FieldType) (any, error) {
	switch t {
	case Integer:
		return toInt(raw)
	case Real:
		return toFloat(raw)
	case String:
		return toString(raw), nil
	default:
		return raw, nil
	}
}

func toInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("cannot coerce nil to %s", Integer)
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return floatToInt(v)
	case float32:
		return floatToInt(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		// The server sometimes serializes integer fields as "5.0".
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0, fmt.Errorf("cannot coerce %q to %s", v, Integer)
	default:
		return 0, fmt.Errorf("cannot coerce %T to %s", raw, Integer)
	}
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("cannot coerce %v to %s", f, Integer)
	}
	return int64(f), nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("cannot coerce nil to %s", Real)
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to %s", v, Real)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to %s", raw, Real)
	}
}

func toString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return Format(raw)
	}
}

// Format renders a coerced value back into its canonical string form.
// Round-tripping through Format and Value is lossless for Integer and Real.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
