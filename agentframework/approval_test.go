// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

type weatherArgs struct {
	Location string `json:"location" jsonschema:"required"`
}

// weatherTools returns a plain tool and one that requires approval, plus
// counters for how often each ran.
func weatherTools() (plain, guarded af.Tool, plainCalls, guardedCalls *int) {
	plainCalls, guardedCalls = new(int), new(int)
	plain = af.NewTypedTool("get_weather", "Get the weather",
		func(ctx context.Context, args weatherArgs) (any, error) {
			*plainCalls++
			return "The weather in " + args.Location + " is sunny.", nil
		},
	)
	guarded = af.NewTypedTool("get_weather_detail", "Get detailed weather",
		func(ctx context.Context, args weatherArgs) (any, error) {
			*guardedCalls++
			return "The weather in " + args.Location + " is sunny with a humidity of 88%.", nil
		},
		af.WithApprovalRequired(),
	)
	return plain, guarded, plainCalls, guardedCalls
}

func callMessage(calls ...*af.FunctionCallContent) af.Message {
	msg := af.Message{Role: af.RoleAssistant}
	for _, c := range calls {
		msg.Contents = append(msg.Contents, c)
	}
	return msg
}

func findResult(msgs []af.Message, callID string) (*af.FunctionResultContent, int) {
	for i, m := range msgs {
		for _, c := range m.Contents {
			if fr, ok := c.(*af.FunctionResultContent); ok && fr.CallID == callID {
				return fr, i
			}
		}
	}
	return nil, -1
}

func hasApprovalContent(msgs []af.Message) bool {
	for _, m := range msgs {
		for _, c := range m.Contents {
			switch c.(type) {
			case *af.ApprovalRequestContent, *af.ApprovalResponseContent:
				return true
			}
		}
	}
	return false
}

func TestApproval_MixedBatchStopsForApproval(t *testing.T) {
	plain, guarded, plainCalls, guardedCalls := weatherTools()

	turns := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			turns++
			return &af.ChatResponse{Messages: []af.Message{callMessage(
				&af.FunctionCallContent{CallID: "c1", Name: "get_weather", Arguments: `{"location":"LA"}`},
				&af.FunctionCallContent{CallID: "c2", Name: "get_weather_detail", Arguments: `{"location":"Seattle"}`},
			)}}, nil
		},
	}

	agent := af.NewAgent(client, af.WithName("WeatherAgent"), af.WithTools(plain, guarded))
	resp, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("weather?")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if turns != 1 {
		t.Errorf("model called %d times, want 1", turns)
	}
	if *plainCalls != 1 || *guardedCalls != 0 {
		t.Errorf("plain=%d guarded=%d, want 1 and 0", *plainCalls, *guardedCalls)
	}

	reqs := resp.UserInputRequests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if reqs[0].Name != "get_weather_detail" || reqs[0].CallID != "c2" {
		t.Errorf("request = %+v", reqs[0])
	}

	// The guarded call is replaced by the request; the plain call keeps its result.
	if fr, _ := findResult(resp.Messages, "c1"); fr == nil {
		t.Error("missing result for the plain call")
	}
	for _, m := range resp.Messages {
		for _, c := range m.Contents {
			if fc, ok := c.(*af.FunctionCallContent); ok && fc.CallID == "c2" {
				t.Error("guarded call should not remain as a function call")
			}
		}
	}
	if resp.Messages[0].AuthorName != "WeatherAgent" {
		t.Errorf("AuthorName = %q", resp.Messages[0].AuthorName)
	}
}

func TestApproval_ResumeApproved(t *testing.T) {
	plain, guarded, _, guardedCalls := weatherTools()

	var second []af.Message
	turns := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			turns++
			if turns == 1 {
				return &af.ChatResponse{Messages: []af.Message{callMessage(
					&af.FunctionCallContent{CallID: "c2", Name: "get_weather_detail", Arguments: `{"location":"Seattle"}`},
				)}}, nil
			}
			second = msgs
			return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage("Seattle is sunny.")}}, nil
		},
	}

	agent := af.NewAgent(client, af.WithTools(plain, guarded))
	query := []af.Message{af.NewUserMessage("detailed weather for Seattle")}
	first, err := agent.Run(context.Background(), query)
	if err != nil {
		t.Fatalf("Run 1: %v", err)
	}
	reqs := first.UserInputRequests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}

	resume := append(append([]af.Message{}, query...), first.Messages...)
	resume = append(resume, af.Message{Role: af.RoleUser, Contents: af.Contents{af.NewApprovalResponse(reqs[0], true)}})

	resp, err := agent.Run(context.Background(), resume)
	if err != nil {
		t.Fatalf("Run 2: %v", err)
	}
	if *guardedCalls != 1 {
		t.Errorf("guarded tool ran %d times, want 1", *guardedCalls)
	}
	if resp.Text() != "Seattle is sunny." {
		t.Errorf("Text = %q", resp.Text())
	}

	if hasApprovalContent(second) {
		t.Error("approval content leaked to the model")
	}
	fr, idx := findResult(second, "c2")
	if fr == nil {
		t.Fatal("model did not receive the tool result")
	}
	if idx == 0 || second[idx-1].Role != af.RoleAssistant {
		t.Fatalf("tool result not preceded by its call: %+v", second)
	}
	if fc, ok := second[idx-1].Contents[0].(*af.FunctionCallContent); !ok || fc.CallID != "c2" {
		t.Errorf("preceding message = %+v", second[idx-1])
	}
	if produced, _ := findResult(resp.Messages, "c2"); produced == nil {
		t.Error("resolved tool result missing from the response")
	}
}

func TestApproval_ResumeRejected(t *testing.T) {
	plain, guarded, _, guardedCalls := weatherTools()

	var seen []af.Message
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			seen = msgs
			return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage("I could not get the details.")}}, nil
		},
	}

	req := &af.ApprovalRequestContent{CallID: "c9", Name: "get_weather_detail", Arguments: `{"location":"Portland"}`}
	msgs := []af.Message{
		af.NewUserMessage("detailed weather for Portland"),
		{Role: af.RoleAssistant, Contents: af.Contents{req}},
		{Role: af.RoleUser, Contents: af.Contents{af.NewApprovalResponse(req, false)}},
	}

	agent := af.NewAgent(client, af.WithTools(plain, guarded))
	if _, err := agent.Run(context.Background(), msgs); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *guardedCalls != 0 {
		t.Errorf("rejected tool ran %d times", *guardedCalls)
	}
	fr, _ := findResult(seen, "c9")
	if fr == nil {
		t.Fatal("missing rejection result")
	}
	if fr.Result != af.RejectedToolResult {
		t.Errorf("Result = %v, want %q", fr.Result, af.RejectedToolResult)
	}
}

func TestApproval_ResponseWithoutRequestSynthesizesCall(t *testing.T) {
	plain, guarded, _, guardedCalls := weatherTools()

	var seen []af.Message
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			seen = msgs
			return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage("ok")}}, nil
		},
	}

	resp := &af.ApprovalResponseContent{CallID: "c5", Name: "get_weather_detail", Arguments: `{"location":"LA"}`, Approved: true}
	agent := af.NewAgent(client, af.WithTools(plain, guarded))
	out, err := agent.Run(context.Background(), []af.Message{{Role: af.RoleUser, Contents: af.Contents{resp}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *guardedCalls != 1 {
		t.Errorf("guarded tool ran %d times, want 1", *guardedCalls)
	}
	if len(seen) != 2 {
		t.Fatalf("model saw %d messages, want call and result", len(seen))
	}
	if fc, ok := seen[0].Contents[0].(*af.FunctionCallContent); !ok || fc.Name != "get_weather_detail" {
		t.Errorf("first message = %+v", seen[0])
	}
	if len(out.Messages) != 3 {
		t.Errorf("response messages = %d, want 3", len(out.Messages))
	}
}

func TestApproval_SessionDoesNotReinvoke(t *testing.T) {
	plain, guarded, _, guardedCalls := weatherTools()

	var last []af.Message
	turns := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			turns++
			last = msgs
			if turns == 1 {
				return &af.ChatResponse{Messages: []af.Message{callMessage(
					&af.FunctionCallContent{CallID: "c3", Name: "get_weather_detail", Arguments: `{"location":"Seattle"}`},
				)}}, nil
			}
			return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage("done")}}, nil
		},
	}

	agent := af.NewAgent(client, af.WithTools(plain, guarded))
	session := agent.NewSession()
	ctx := context.Background()

	first, err := agent.Run(ctx, []af.Message{af.NewUserMessage("details please")}, af.WithSession(session))
	if err != nil {
		t.Fatal(err)
	}
	req := first.UserInputRequests()[0]

	approval := af.Message{Role: af.RoleUser, Contents: af.Contents{af.NewApprovalResponse(req, true)}}
	if _, err := agent.Run(ctx, []af.Message{approval}, af.WithSession(session)); err != nil {
		t.Fatal(err)
	}
	if _, err := agent.Run(ctx, []af.Message{af.NewUserMessage("thanks")}, af.WithSession(session)); err != nil {
		t.Fatal(err)
	}

	if *guardedCalls != 1 {
		t.Errorf("guarded tool ran %d times, want 1", *guardedCalls)
	}
	if hasApprovalContent(last) {
		t.Error("approval content leaked to the model on a later turn")
	}
	if fr, _ := findResult(last, "c3"); fr == nil {
		t.Error("history lost the approved tool result")
	}
}
