// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

func decodeContents(t *testing.T, data []byte) af.Contents {
	t.Helper()
	var cs af.Contents
	if err := json.Unmarshal(data, &cs); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return cs
}

// A stored weather turn must come back from the history store unchanged,
// including the rejected approval and the model's reasoning.
func TestContents_PersistedTurn(t *testing.T) {
	turn := af.Contents{
		&af.TextReasoningContent{Text: "The user wants details, approval needed."},
		&af.FunctionCallContent{CallID: "call_1", Name: "get_weather", Arguments: `{"location":"Amsterdam"}`},
		&af.FunctionResultContent{CallID: "call_1", Result: "cloudy, 12 degrees"},
		af.NewApprovalResponse(&af.ApprovalRequestContent{CallID: "call_2", Name: "get_weather_detail", Arguments: `{"location":"Amsterdam"}`}, false),
		&af.UsageContent{Usage: af.UsageDetails{InputTokens: 42, OutputTokens: 7, TotalTokens: 49}},
		&af.ErrorContent{Message: "rate limited", ErrorCode: "429"},
	}
	data, err := json.Marshal(turn)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"$type":"reasoning"`, `"arguments":{"location":"Amsterdam"}`, `"approved":false`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoded turn lacks %s: %s", want, data)
		}
	}
	if got := decodeContents(t, data); !reflect.DeepEqual(got, turn) {
		t.Errorf("decoded =\n%#v\nwant\n%#v", got, turn)
	}
}

func TestContents_MalformedArgumentsKeptVerbatim(t *testing.T) {
	partial := `{"location":"Ber`
	data, err := af.MarshalContentJSON(&af.FunctionCallContent{CallID: "c", Name: "get_weather", Arguments: partial})
	if err != nil {
		t.Fatal(err)
	}
	c, err := af.UnmarshalContentJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.(*af.FunctionCallContent).Arguments; got != partial {
		t.Errorf("Arguments = %q, want %q", got, partial)
	}
}

func TestContents_UnknownType(t *testing.T) {
	var cs af.Contents
	err := json.Unmarshal([]byte(`[{"$type":"text","text":"ok"},{"$type":"hologram"}]`), &cs)
	if err == nil || !strings.Contains(err.Error(), "content[1]") {
		t.Errorf("err = %v", err)
	}
	if _, err := af.MarshalContentJSON(nil); err == nil {
		t.Error("marshalling a nil content should fail")
	}
}

func TestApprovalRequest_FunctionCall(t *testing.T) {
	req := &af.ApprovalRequestContent{CallID: "c3", Name: "get_weather_detail", Arguments: `{"location":"Oslo"}`}
	want := &af.FunctionCallContent{CallID: "c3", Name: "get_weather_detail", Arguments: `{"location":"Oslo"}`}
	if got := req.FunctionCall(); !reflect.DeepEqual(got, want) {
		t.Errorf("FunctionCall() = %+v", got)
	}
	if resp := af.NewApprovalResponse(req, true); !resp.Approved || resp.Name != req.Name {
		t.Errorf("response = %+v", resp)
	}
}
