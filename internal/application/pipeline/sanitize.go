package pipeline

import (
	"fmt"
	"reflect"
	"strings"
)

// RedactedValue replaces fields tagged `log:"redact"`.
const RedactedValue = "[REDACTED]"

// Sanitize converts a request into a loggable value. Exported fields are kept
// under their json names, fields tagged `log:"redact"` are masked, and
// zero-size embedded markers such as mediator.Returns are omitted.
func Sanitize(req any) any {
	if req == nil {
		return nil
	}
	return sanitizeValue(reflect.ValueOf(req), 0)
}

const maxSanitizeDepth = 6

var stringerType = reflect.TypeFor[fmt.Stringer]()

func sanitizeValue(v reflect.Value, depth int) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if depth > maxSanitizeDepth {
		return "..."
	}
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String()
	}

	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		sanitizeStruct(v, depth, out)
		return out
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		items := make([]any, v.Len())
		for i := range items {
			items[i] = sanitizeValue(v.Index(i), depth+1)
		}
		return items
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitizeValue(iter.Value(), depth+1)
		}
		return out
	default:
		return v.Interface()
	}
}

func sanitizeStruct(v reflect.Value, depth int, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous {
			if field.Type.Size() == 0 {
				continue
			}
			if fv := v.Field(i); fv.Kind() == reflect.Struct && !fv.Type().Implements(stringerType) {
				sanitizeStruct(fv, depth+1, out)
				continue
			}
		}

		name := fieldName(field)
		if name == "" {
			continue
		}
		if field.Tag.Get("log") == "redact" {
			out[name] = RedactedValue
			continue
		}
		out[name] = sanitizeValue(v.Field(i), depth+1)
	}
}

func fieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}
