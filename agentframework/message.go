// Copyright (c) Microsoft. All rights reserved.

package agentframework

// Role identifies the author of a [Message].
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// FinishReason is why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// Message is one chat message. Only Role, Contents, AuthorName and
// MessageID are persisted by message stores.
type Message struct {
	Role       Role     `json:"role"`
	Contents   Contents `json:"contents,omitempty"`
	AuthorName string   `json:"authorName,omitempty"`
	MessageID  string   `json:"messageId,omitempty"`

	Raw any `json:"-"`
}

// Text joins the message's text contents.
func (m *Message) Text() string { return m.Contents.text() }

// FunctionCalls returns the function calls the message carries, in order.
func (m *Message) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for _, c := range m.Contents {
		if fc, ok := c.(*FunctionCallContent); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func textMessage(role Role, text string) Message {
	return Message{Role: role, Contents: Contents{&TextContent{Text: text}}}
}

// NewUserMessage returns a user message holding text.
func NewUserMessage(text string) Message { return textMessage(RoleUser, text) }

// NewAssistantMessage returns an assistant message holding text.
func NewAssistantMessage(text string) Message { return textMessage(RoleAssistant, text) }

// NewSystemMessage returns a system message holding text.
func NewSystemMessage(text string) Message { return textMessage(RoleSystem, text) }

// NewToolMessage returns the tool message answering the call callID.
func NewToolMessage(callID string, result any) Message {
	return Message{
		Role:     RoleTool,
		Contents: Contents{&FunctionResultContent{CallID: callID, Result: result}},
	}
}

// PrependInstructions puts instructions in a leading system message unless
// messages already contain a system message.
func PrependInstructions(messages []Message, instructions string) []Message {
	if instructions == "" {
		return messages
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			return messages
		}
	}
	return append([]Message{NewSystemMessage(instructions)}, messages...)
}
