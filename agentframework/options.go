// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"maps"
	"slices"
)

// ToolChoice controls how the model selects tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// ToolChoiceFunction forces a call to the named function.
func ToolChoiceFunction(name string) ToolChoice {
	return ToolChoice("function:" + name)
}

// ChatOptions configures one model call. Nil pointers and empty values mean
// the provider default.
type ChatOptions struct {
	ModelID          string
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	Stop             []string
	Seed             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Tools            []Tool
	ToolChoice       ToolChoice
	ResponseFormat   any
	Metadata         map[string]string
	User             string
	Instructions     string
	Store            *bool
}

// MergeChatOptions returns base with the set fields of override applied.
// Instructions are joined on a new line, a tool in override replaces the
// base tool of the same name and metadata maps are merged. Neither argument
// is modified.
func MergeChatOptions(base, override *ChatOptions) *ChatOptions {
	var merged ChatOptions
	if base != nil {
		merged = *base
		merged.Tools = slices.Clone(base.Tools)
		merged.Metadata = maps.Clone(base.Metadata)
	}
	if override == nil {
		return &merged
	}

	set(&merged.ModelID, override.ModelID)
	set(&merged.ToolChoice, override.ToolChoice)
	set(&merged.User, override.User)
	setPtr(&merged.Temperature, override.Temperature)
	setPtr(&merged.TopP, override.TopP)
	setPtr(&merged.MaxTokens, override.MaxTokens)
	setPtr(&merged.Seed, override.Seed)
	setPtr(&merged.FrequencyPenalty, override.FrequencyPenalty)
	setPtr(&merged.PresencePenalty, override.PresencePenalty)
	setPtr(&merged.Store, override.Store)
	if len(override.Stop) > 0 {
		merged.Stop = override.Stop
	}
	if override.ResponseFormat != nil {
		merged.ResponseFormat = override.ResponseFormat
	}
	merged.Instructions = joinInstructions(merged.Instructions, override.Instructions)
	merged.Tools = mergeTools(merged.Tools, override.Tools)
	if len(override.Metadata) > 0 {
		if merged.Metadata == nil {
			merged.Metadata = make(map[string]string, len(override.Metadata))
		}
		maps.Copy(merged.Metadata, override.Metadata)
	}
	return &merged
}

func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func setPtr[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func joinInstructions(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}

// mergeTools appends extra to tools. A tool whose name is already present
// takes the earlier tool's place. tools may be modified.
func mergeTools(tools, extra []Tool) []Tool {
	for _, t := range extra {
		i := slices.IndexFunc(tools, func(have Tool) bool { return have.Name() == t.Name() })
		if i >= 0 {
			tools[i] = t
			continue
		}
		tools = append(tools, t)
	}
	return tools
}
