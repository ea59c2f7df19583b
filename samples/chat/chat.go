// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"strings"
	"time"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
)

// chat runs the console loop on one session. A "stream " prefix streams the
// answer; quit or exit ends the loop.
func chat(ctx context.Context, agent *af.Agent, con *console.Console) {
	session := agent.NewSession()
	con.Printf("Chat with the assistant (type 'quit' to exit, 'stream' prefix for streaming)\n\n")

	for {
		input, ok := con.ReadLine("You: ")
		if !ok || input == "quit" || input == "exit" {
			return
		}
		if input == "" {
			continue
		}
		if text, streaming := strings.CutPrefix(input, "stream "); streaming {
			streamTurn(ctx, agent, session, con, text)
		} else {
			turn(ctx, agent, session, con, input)
		}
		con.Printf("\n")
	}
}

func turn(ctx context.Context, agent *af.Agent, session *af.Session, con *console.Console, input string) {
	resp, err := agent.Run(ctx, []af.Message{af.NewUserMessage(input)}, af.WithSession(session))
	if err != nil {
		con.Printf("Error: %v\n", err)
		return
	}
	con.Printf("Assistant: %s\n", resp.Text())
	if !resp.Usage.IsZero() {
		con.Printf("  [tokens: %d in, %d out]\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
}

func streamTurn(ctx context.Context, agent *af.Agent, session *af.Session, con *console.Console, input string) {
	stream, err := agent.RunStream(ctx, []af.Message{af.NewUserMessage(input)}, af.WithSession(session))
	if err != nil {
		con.Printf("Error: %v\n", err)
		return
	}
	defer stream.Close()

	con.Printf("Assistant: ")
	for update, err := range stream.All(ctx) {
		if err != nil {
			con.Printf("\nStream error: %v", err)
			break
		}
		con.Printf("%s", update.Text())
	}
	con.Printf("\n")
}

// timeTool is get_time. Without a zone it reports local time.
func timeTool(now func() time.Time) af.Tool {
	return af.NewTypedTool("get_time",
		"Get the current time, optionally in an IANA time zone such as Europe/Berlin.",
		func(ctx context.Context, a struct {
			Zone string `json:"zone,omitempty" jsonschema:"description=IANA time zone name"`
		}) (any, error) {
			t := now()
			if a.Zone == "" {
				return t.Format("Monday, January 2, 2006 03:04:05 PM MST"), nil
			}
			return sampletools.CurrentTime(a.Zone, t), nil
		})
}
