// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"encoding/json"
	"reflect"
	"strings"
)

// GenerateSchema returns the JSON Schema of T, which is normally a struct of
// tool arguments. Property names follow the json tags; the jsonschema tag adds
// metadata as comma-separated entries:
//
//	Unit string `json:"unit" jsonschema:"description=Unit, defaults to celsius,enum=celsius|fahrenheit,required"`
//
// Recognized entries are description=, enum= (values split on |) and
// required. Text that does not start a recognized entry continues the
// previous description, so descriptions may contain commas.
func GenerateSchema[T any]() json.RawMessage {
	b, _ := json.Marshal(schemaFor(reflect.TypeFor[T]()))
	return b
}

func schemaFor(t reflect.Type) map[string]any {
	switch t.Kind() {
	case reflect.Pointer:
		return schemaFor(t.Elem())
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaFor(t.Elem())}
	case reflect.Map:
		s := map[string]any{"type": "object"}
		if t.Key().Kind() == reflect.String {
			s["additionalProperties"] = schemaFor(t.Elem())
		}
		return s
	case reflect.Struct:
		return structSchema(t)
	case reflect.Interface:
		return map[string]any{}
	}
	return map[string]any{"type": "string"}
}

func structSchema(t reflect.Type) map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, skip := jsonName(f)
		if skip {
			continue
		}
		prop := schemaFor(f.Type)
		tag := parseSchemaTag(f.Tag.Get("jsonschema"))
		if tag.description != "" {
			prop["description"] = tag.description
		}
		if len(tag.enum) > 0 {
			prop["enum"] = tag.enum
		}
		if tag.required {
			required = append(required, name)
		}
		props[name] = prop
	}
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func jsonName(f reflect.StructField) (name string, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}

type schemaTag struct {
	description string
	enum        []any
	required    bool
}

func parseSchemaTag(tag string) schemaTag {
	var st schemaTag
	if tag == "" {
		return st
	}
	inDescription := false
	for _, part := range strings.Split(tag, ",") {
		key, val, hasVal := strings.Cut(strings.TrimSpace(part), "=")
		switch {
		case key == "required" && !hasVal:
			st.required = true
			inDescription = false
		case key == "enum" && hasVal:
			for _, v := range strings.Split(val, "|") {
				st.enum = append(st.enum, strings.TrimSpace(v))
			}
			inDescription = false
		case key == "description" && hasVal:
			st.description = strings.TrimSpace(val)
			inDescription = true
		case inDescription:
			st.description += "," + part
		}
	}
	return st
}
