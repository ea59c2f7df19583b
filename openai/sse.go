// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

const maxEventSize = 1 << 20

// streamDecoder reads the server-sent events of a streamed completion.
type streamDecoder struct {
	logger *slog.Logger
	calls  callAssembler
}

// decode sends an update for every chunk that carries something and returns
// at [DONE] or the end of the body. Function calls are held back until the
// chunk with the finish reason, because their arguments arrive in pieces.
func (d *streamDecoder) decode(ctx context.Context, body io.Reader, ch chan<- af.ChatResponseUpdate) error {
	send := func(u af.ChatResponseUpdate) error {
		select {
		case ch <- u:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			break
		}

		var c chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			d.logger.DebugContext(ctx, "skipping malformed stream event", "error", err)
			continue
		}
		if err := streamError(data); err != nil {
			return err
		}
		u, ok := d.update(&c)
		if !ok {
			continue
		}
		if err := send(u); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %v", af.ErrService, err)
	}

	// Some compatible servers end the stream without a finish reason.
	if calls := d.calls.take(); len(calls) > 0 {
		return send(af.ChatResponseUpdate{Role: af.RoleAssistant, Contents: calls, FinishReason: af.FinishReasonToolCalls})
	}
	return nil
}

// update converts one chunk. ok is false when the chunk carries nothing.
func (d *streamDecoder) update(c *chunk) (af.ChatResponseUpdate, bool) {
	u := af.ChatResponseUpdate{ResponseID: c.ID, MessageID: c.ID, ModelID: c.Model, Usage: c.Usage.details(), Raw: c}
	if len(c.Choices) > 0 {
		choice := c.Choices[0]
		u.Role = af.Role(choice.Delta.Role)
		u.Contents = choice.Delta.contents()
		d.calls.add(choice.Delta.ToolCalls)
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			u.FinishReason = finishReason(*choice.FinishReason)
			u.Contents = append(u.Contents, d.calls.take()...)
		}
	}
	return u, len(u.Contents) > 0 || u.FinishReason != "" || !u.Usage.IsZero() || u.Role != ""
}

// streamError reports an error object sent in place of a chunk.
func streamError(data string) error {
	var eb errorBody
	if json.Unmarshal([]byte(data), &eb) != nil || eb.Error.Message == "" {
		return nil
	}
	return &af.ServiceError{Message: eb.Error.Message, Code: errorCode(eb.Error.Code), Err: af.ErrService}
}

// callAssembler joins streamed tool call fragments. The id and name arrive
// once, the arguments in pieces, all keyed by the call's index.
type callAssembler struct {
	order []int
	calls map[int]*af.FunctionCallContent
}

func (a *callAssembler) add(deltas []wireToolCall) {
	for i, d := range deltas {
		idx := i
		if d.Index != nil {
			idx = *d.Index
		}
		if a.calls == nil {
			a.calls = make(map[int]*af.FunctionCallContent)
		}
		fc, ok := a.calls[idx]
		if !ok {
			fc = &af.FunctionCallContent{}
			a.calls[idx] = fc
			a.order = append(a.order, idx)
		}
		if d.ID != "" {
			fc.CallID = d.ID
		}
		if d.Function.Name != "" {
			fc.Name = d.Function.Name
		}
		fc.Arguments += d.Function.Arguments
	}
}

// take returns the assembled calls in index order and resets a.
func (a *callAssembler) take() af.Contents {
	if len(a.order) == 0 {
		return nil
	}
	out := make(af.Contents, 0, len(a.order))
	for _, idx := range a.order {
		out = append(out, a.calls[idx])
	}
	*a = callAssembler{}
	return out
}
