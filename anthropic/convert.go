// Copyright (c) Microsoft. All rights reserved.

package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// buildParams converts framework messages and options into a Messages API
// request. System messages move to the top-level system prompt, tool results
// travel as tool_result blocks in a user turn, and consecutive turns from the
// same side are merged because the API requires strict alternation.
func (c *Client) buildParams(messages []af.Message, opts *af.ChatOptions) (sdk.MessageNewParams, error) {
	model := c.model
	maxTokens := c.maxTokens
	if opts != nil {
		if opts.ModelID != "" {
			model = opts.ModelID
		}
		if opts.MaxTokens != nil {
			maxTokens = int64(*opts.MaxTokens)
		}
	}
	if model == "" {
		return sdk.MessageNewParams{}, fmt.Errorf("%w: no model configured", af.ErrInvalidRequest)
	}

	system, turns := convertMessages(messages)
	if len(turns) == 0 {
		return sdk.MessageNewParams{}, fmt.Errorf("%w: at least one user or assistant message is required", af.ErrInvalidRequest)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		Messages:  turns,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	if opts == nil {
		return params, nil
	}
	if opts.Temperature != nil {
		params.Temperature = sdk.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = sdk.Float(*opts.TopP)
	}
	if len(opts.Stop) > 0 {
		params.StopSequences = opts.Stop
	}
	if len(opts.Tools) > 0 {
		tools, err := convertTools(opts.Tools)
		if err != nil {
			return sdk.MessageNewParams{}, err
		}
		params.Tools = tools
		params.ToolChoice = convertToolChoice(opts.ToolChoice)
	}
	return params, nil
}

func convertMessages(messages []af.Message) (string, []sdk.MessageParam) {
	var system []string
	var turns []sdk.MessageParam

	appendBlocks := func(role sdk.MessageParamRole, blocks []sdk.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content = append(turns[n-1].Content, blocks...)
			return
		}
		turns = append(turns, sdk.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case af.RoleSystem:
			if text := msg.Text(); text != "" {
				system = append(system, text)
			}
		case af.RoleAssistant:
			var blocks []sdk.ContentBlockParamUnion
			for _, c := range msg.Contents {
				switch v := c.(type) {
				case *af.TextContent:
					if v.Text != "" {
						blocks = append(blocks, sdk.NewTextBlock(v.Text))
					}
				case *af.FunctionCallContent:
					args := v.Arguments
					if args == "" || !json.Valid([]byte(args)) {
						args = "{}"
					}
					blocks = append(blocks, sdk.NewToolUseBlock(v.CallID, json.RawMessage(args), v.Name))
				}
			}
			appendBlocks(sdk.MessageParamRoleAssistant, blocks)
		default:
			var blocks []sdk.ContentBlockParamUnion
			for _, c := range msg.Contents {
				switch v := c.(type) {
				case *af.TextContent:
					if v.Text != "" {
						blocks = append(blocks, sdk.NewTextBlock(v.Text))
					}
				case *af.FunctionResultContent:
					blocks = append(blocks, sdk.NewToolResultBlock(v.CallID, resultString(v.Result), false))
				}
			}
			appendBlocks(sdk.MessageParamRoleUser, blocks)
		}
	}
	return strings.Join(system, "\n\n"), turns
}

func resultString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// toolSchema is the subset of a JSON Schema object the API takes for tools.
type toolSchema struct {
	Properties any      `json:"properties"`
	Required   []string `json:"required"`
}

func convertTools(tools []af.Tool) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema toolSchema
		if params := t.Parameters(); len(params) > 0 {
			if err := json.Unmarshal(params, &schema); err != nil {
				return nil, fmt.Errorf("%w: tool %q schema: %v", af.ErrInvalidRequest, t.Name(), err)
			}
		}
		if schema.Properties == nil {
			schema.Properties = map[string]any{}
		}
		tool := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{
			Properties: schema.Properties,
			Required:   schema.Required,
		}, t.Name())
		if d := t.Description(); d != "" {
			tool.OfTool.Description = sdk.String(d)
		}
		out = append(out, tool)
	}
	return out, nil
}

func convertToolChoice(tc af.ToolChoice) sdk.ToolChoiceUnionParam {
	switch {
	case tc == af.ToolChoiceRequired:
		return sdk.ToolChoiceUnionParam{OfAny: &sdk.ToolChoiceAnyParam{}}
	case tc == af.ToolChoiceNone:
		return sdk.ToolChoiceUnionParam{OfNone: &sdk.ToolChoiceNoneParam{}}
	case strings.HasPrefix(string(tc), "function:"):
		return sdk.ToolChoiceUnionParam{OfTool: &sdk.ToolChoiceToolParam{Name: strings.TrimPrefix(string(tc), "function:")}}
	default:
		return sdk.ToolChoiceUnionParam{OfAuto: &sdk.ToolChoiceAutoParam{}}
	}
}

// parseMessage converts an API message into a framework response.
func parseMessage(msg *sdk.Message) *af.ChatResponse {
	resp := &af.ChatResponse{
		ResponseID:   msg.ID,
		ModelID:      string(msg.Model),
		FinishReason: mapStopReason(msg.StopReason),
		Usage: af.UsageDetails{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	out := af.Message{Role: af.RoleAssistant, MessageID: msg.ID}
	for i := range msg.Content {
		block := &msg.Content[i]
		switch block.Type {
		case "text":
			if text := block.AsText().Text; text != "" {
				out.Contents = append(out.Contents, &af.TextContent{Text: text})
			}
		case "thinking":
			out.Contents = append(out.Contents, &af.TextReasoningContent{Text: block.AsThinking().Thinking})
		case "tool_use":
			use := block.AsToolUse()
			args := string(use.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			out.Contents = append(out.Contents, &af.FunctionCallContent{
				CallID:    use.ID,
				Name:      use.Name,
				Arguments: args,
			})
		}
	}
	if len(out.Contents) > 0 {
		resp.Messages = []af.Message{out}
	}
	return resp
}

func mapStopReason(r sdk.StopReason) af.FinishReason {
	switch r {
	case sdk.StopReasonEndTurn, sdk.StopReasonStopSequence:
		return af.FinishReasonStop
	case sdk.StopReasonMaxTokens:
		return af.FinishReasonLength
	case sdk.StopReasonToolUse:
		return af.FinishReasonToolCalls
	case "":
		return ""
	default:
		return af.FinishReason(r)
	}
}
