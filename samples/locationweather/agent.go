// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/mcp"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
)

const instructions = `You are a helpful assistant that provides location-aware weather and time information.

Key capabilities:
- When a user tells you their location (e.g., "I am in London" or "I moved to Berlin"), store it using the move() tool
- Use get_current_user() to get the username, then get_current_location() to retrieve their stored location
- For weather queries, use get_weather_at_location() with the user's current city
- For time queries, use get_current_time() with the user's timezone
- Remember the user's location from earlier in the conversation
- If the user hasn't told you their location yet, politely ask them to provide it

Supported weather locations: Seattle, New York, London, Berlin, Tokyo, Sydney
If a user requests weather for an unsupported location, use list_supported_locations() and ask them to choose from the list.

Be conversational, friendly, and helpful. Acknowledge when you've stored or updated their location.`

var exitWords = map[string]bool{"exit": true, "quit": true, "bye": true, "goodbye": true}

func newAgent(model *modelclient.Model, tools []af.Tool, logger *slog.Logger) *af.Agent {
	opts := []af.AgentOption{
		af.WithName("LocationWeatherAgent"),
		af.WithInstructions(instructions),
		af.WithTools(tools...),
		af.WithAgentMiddleware(af.LoggingMiddleware(logger)),
		af.WithFunctionMiddleware(af.FunctionLoggingMiddleware(logger)),
		af.WithLogger(logger),
	}
	return af.NewAgent(model.Client, append(opts, model.AgentOptions...)...)
}

// connectAll connects every server and returns their combined tools. On
// failure the servers connected so far are closed.
func connectAll(ctx context.Context, servers ...*mcp.StreamableHTTPTool) ([]af.Tool, error) {
	var tools []af.Tool
	for i, s := range servers {
		if err := s.Connect(ctx); err != nil {
			for _, done := range servers[:i] {
				_ = done.Close()
			}
			return nil, err
		}
		tools = append(tools, s.Tools()...)
	}
	return tools, nil
}

// printStartupHints explains how to get the MCP servers running.
func printStartupHints(w io.Writer, err error, userURL, weatherURL string) {
	if errors.Is(err, mcp.ErrConnect) {
		fmt.Fprintln(w, "\n❌ Connection Error: Unable to reach MCP servers")
	} else {
		fmt.Fprintf(w, "\n❌ Error connecting to MCP servers: %v\n", err)
	}
	fmt.Fprintln(w, "\nPlease ensure both MCP servers are running:")
	fmt.Fprintln(w, "  Terminal 1: go run ./samples/mcpweather")
	fmt.Fprintln(w, "  Terminal 2: go run ./samples/mcpuser")
	fmt.Fprintln(w, "\nExpected URLs:")
	fmt.Fprintf(w, "  User MCP: %s\n", userURL)
	fmt.Fprintf(w, "  Weather MCP: %s\n", weatherURL)
	fmt.Fprintln(w, "\nPlease also check that ports 8001 and 8002 are not blocked and that the URLs in .env are correct.")
}

// converse runs the conversation loop on one session until an exit word or
// the end of input. Failed turns are reported and the loop continues.
func converse(ctx context.Context, agent *af.Agent, session *af.Session, con *console.Console, w io.Writer) {
	for {
		input, ok := con.ReadLine("\nYou: ")
		if !ok {
			fmt.Fprintln(w, "\n\n👋 Goodbye!")
			return
		}
		if exitWords[strings.ToLower(input)] {
			fmt.Fprintln(w, "\nAgent: Goodbye! Have a great day!")
			return
		}
		if input == "" {
			continue
		}

		resp, err := agent.Run(ctx, []af.Message{af.NewUserMessage(input)}, af.WithSession(session))
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(w, "\n\n👋 Conversation interrupted. Goodbye!")
				return
			}
			fmt.Fprintf(w, "\n❌ Error: %v\nPlease try again or type 'exit' to quit.\n", err)
			continue
		}
		fmt.Fprintf(w, "\nAgent: %s\n", resp.Text())
	}
}
