// Copyright (c) Microsoft. All rights reserved.

package agentframework

// ContentType identifies the kind of content within a message.
type ContentType string

const (
	ContentTypeText             ContentType = "text"
	ContentTypeTextReasoning    ContentType = "reasoning"
	ContentTypeData             ContentType = "data"
	ContentTypeURI              ContentType = "uri"
	ContentTypeError            ContentType = "error"
	ContentTypeFunctionCall     ContentType = "functionCall"
	ContentTypeFunctionResult   ContentType = "functionResult"
	ContentTypeUsage            ContentType = "usage"
	ContentTypeApprovalRequest  ContentType = "functionApprovalRequest"
	ContentTypeApprovalResponse ContentType = "functionApprovalResponse"
)

// RejectedToolResult is the tool result recorded for a call the user declined.
const RejectedToolResult = "Error: Tool call invocation was rejected by user."

// Content is a sealed interface representing a piece of content within a [Message].
// Use a type switch to inspect the underlying type.
type Content interface {
	// Type returns the discriminator for this content item.
	Type() ContentType

	sealed()
}

type base struct{}

func (base) sealed() {}

// TextContent holds plain text.
type TextContent struct {
	base
	Text string
}

func (c *TextContent) Type() ContentType { return ContentTypeText }

// TextReasoningContent holds chain-of-thought / reasoning text.
type TextReasoningContent struct {
	base
	Text string
}

func (c *TextReasoningContent) Type() ContentType { return ContentTypeTextReasoning }

// DataContent holds binary data represented as a data URI.
type DataContent struct {
	base
	URI       string // data:image/png;base64,...
	MediaType string
}

func (c *DataContent) Type() ContentType { return ContentTypeData }

// URIContent holds an external URI reference.
type URIContent struct {
	base
	URI       string
	MediaType string
}

func (c *URIContent) Type() ContentType { return ContentTypeURI }

// ErrorContent represents an error returned as message content.
type ErrorContent struct {
	base
	Message   string
	ErrorCode string
	Details   any
}

func (c *ErrorContent) Type() ContentType { return ContentTypeError }

// FunctionCallContent represents a tool/function call requested by the model.
type FunctionCallContent struct {
	base
	CallID    string
	Name      string
	Arguments string // JSON-encoded arguments
}

func (c *FunctionCallContent) Type() ContentType { return ContentTypeFunctionCall }

// FunctionResultContent represents the result of a tool/function call.
type FunctionResultContent struct {
	base
	CallID string
	Result any
}

func (c *FunctionResultContent) Type() ContentType { return ContentTypeFunctionResult }

// UsageContent carries token usage information.
type UsageContent struct {
	base
	Usage UsageDetails
}

func (c *UsageContent) Type() ContentType { return ContentTypeUsage }

// ApprovalRequestContent asks the user to approve a function call before it
// is invoked. It is produced for tools created with [WithApprovalRequired].
type ApprovalRequestContent struct {
	base
	CallID    string
	Name      string
	Arguments string
}

func (c *ApprovalRequestContent) Type() ContentType { return ContentTypeApprovalRequest }

// FunctionCall returns the function call the request is guarding.
func (c *ApprovalRequestContent) FunctionCall() *FunctionCallContent {
	return &FunctionCallContent{CallID: c.CallID, Name: c.Name, Arguments: c.Arguments}
}

// ApprovalResponseContent carries the user's decision for an
// [ApprovalRequestContent]. Name and Arguments repeat the guarded call so the
// response is self-contained when the request is no longer in the history.
type ApprovalResponseContent struct {
	base
	CallID    string
	Name      string
	Arguments string
	Approved  bool
	Reason    string
}

func (c *ApprovalResponseContent) Type() ContentType { return ContentTypeApprovalResponse }

// NewApprovalResponse builds the response to req.
func NewApprovalResponse(req *ApprovalRequestContent, approved bool) *ApprovalResponseContent {
	return &ApprovalResponseContent{
		CallID:    req.CallID,
		Name:      req.Name,
		Arguments: req.Arguments,
		Approved:  approved,
	}
}
