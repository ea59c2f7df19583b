// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"encoding/json"
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

func ptr[T any](v T) *T { return &v }

func namedTool(name, desc string) af.Tool {
	return af.NewTool(name, desc, nil, func(context.Context, json.RawMessage) (any, error) { return nil, nil })
}

func TestMergeChatOptions_Nil(t *testing.T) {
	if got := af.MergeChatOptions(nil, nil); got == nil {
		t.Fatal("want an empty value, got nil")
	}
	if got := af.MergeChatOptions(nil, &af.ChatOptions{ModelID: "gpt-4o"}); got.ModelID != "gpt-4o" {
		t.Errorf("nil base: ModelID = %q", got.ModelID)
	}
	if got := af.MergeChatOptions(&af.ChatOptions{ModelID: "gpt-4o"}, nil); got.ModelID != "gpt-4o" {
		t.Errorf("nil override: ModelID = %q", got.ModelID)
	}
}

func TestMergeChatOptions_Overlay(t *testing.T) {
	base := &af.ChatOptions{
		ModelID:      "base-model",
		Temperature:  ptr(0.5),
		MaxTokens:    ptr(100),
		User:         "user1",
		Instructions: "Be helpful",
		Metadata:     map[string]string{"a": "1", "b": "2"},
		Tools:        []af.Tool{namedTool("lookup", "base"), namedTool("time", "base")},
	}
	override := &af.ChatOptions{
		ModelID:      "override-model",
		Temperature:  ptr(0.9),
		ToolChoice:   af.ToolChoiceRequired,
		Instructions: "Be concise",
		Metadata:     map[string]string{"b": "override", "c": "3"},
		Tools:        []af.Tool{namedTool("lookup", "override"), namedTool("weather", "override")},
	}
	got := af.MergeChatOptions(base, override)

	if got.ModelID != "override-model" || *got.Temperature != 0.9 || got.ToolChoice != af.ToolChoiceRequired {
		t.Errorf("overridden fields = %q %v %q", got.ModelID, *got.Temperature, got.ToolChoice)
	}
	if *got.MaxTokens != 100 || got.User != "user1" {
		t.Errorf("base fields lost: %v %q", *got.MaxTokens, got.User)
	}
	if got.Instructions != "Be helpful\nBe concise" {
		t.Errorf("Instructions = %q", got.Instructions)
	}
	if got.Metadata["a"] != "1" || got.Metadata["b"] != "override" || got.Metadata["c"] != "3" {
		t.Errorf("Metadata = %v", got.Metadata)
	}

	var tools []string
	for _, tool := range got.Tools {
		tools = append(tools, tool.Name()+"/"+tool.Description())
	}
	want := []string{"lookup/override", "time/base", "weather/override"}
	if len(tools) != len(want) || tools[0] != want[0] || tools[1] != want[1] || tools[2] != want[2] {
		t.Errorf("Tools = %v, want %v", tools, want)
	}

	if base.Metadata["b"] != "2" || base.Tools[0].Description() != "base" || base.Instructions != "Be helpful" {
		t.Error("base was modified")
	}
}

func TestToolChoiceFunction(t *testing.T) {
	if got := af.ToolChoiceFunction("get_weather"); got != "function:get_weather" {
		t.Errorf("ToolChoiceFunction = %q", got)
	}
}
