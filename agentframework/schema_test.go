// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"encoding/json"
	"reflect"
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

func schemaOf[T any](t *testing.T) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.Unmarshal(af.GenerateSchema[T](), &parsed); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	return parsed
}

type forecastArgs struct {
	Location string `json:"location" jsonschema:"description=City name, e.g. Seattle or Berlin,required"`
	Unit     string `json:"unit,omitempty" jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
	Days     *int   `json:"days"`
	Internal string `json:"-"`
	secret   string
}

func TestGenerateSchema_Tags(t *testing.T) {
	_ = forecastArgs{}.secret
	got := schemaOf[forecastArgs](t)
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string", "description": "City name, e.g. Seattle or Berlin"},
			"unit":     map[string]any{"type": "string", "description": "Temperature unit", "enum": []any{"celsius", "fahrenheit"}},
			"days":     map[string]any{"type": "integer"},
		},
		"required": []any{"location"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("schema =\n%v\nwant\n%v", got, want)
	}
}

type mealArgs struct {
	Dishes   []string           `json:"dishes"`
	Prices   map[string]float64 `json:"prices"`
	Vegan    bool               `json:"vegan"`
	Guests   uint8              `json:"guests"`
	Metadata any                `json:"metadata"`
	Username string
}

func TestGenerateSchema_Types(t *testing.T) {
	props := schemaOf[*mealArgs](t)["properties"].(map[string]any)
	want := map[string]any{
		"dishes":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"prices":   map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "number"}},
		"vegan":    map[string]any{"type": "boolean"},
		"guests":   map[string]any{"type": "integer"},
		"metadata": map[string]any{},
		"Username": map[string]any{"type": "string"},
	}
	if !reflect.DeepEqual(props, want) {
		t.Errorf("properties =\n%v\nwant\n%v", props, want)
	}
}

func TestGenerateSchema_NoRequired(t *testing.T) {
	got := schemaOf[struct {
		Note string `json:"note"`
	}](t)
	if _, ok := got["required"]; ok {
		t.Errorf("required should be omitted: %v", got)
	}
}
