// Copyright (c) Microsoft. All rights reserved.

// Command locationweather is a conversational agent that remembers where the
// user is and answers weather and time questions for that place.
//
// Its tools come from two MCP servers: the user server keeps the user's
// location and the weather server knows weather and time zones. Start both
// first:
//
//	go run ./samples/mcpweather
//	go run ./samples/mcpuser
//	go run ./samples/locationweather
//	go run ./samples/locationweather --history chat.db
//	go run ./samples/locationweather --history chat.db --reset
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/mcp"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sqlitestore"
)

const historyThread = "location-weather"

func main() {
	history := flag.String("history", "", "SQLite file that keeps the conversation across runs")
	reset := flag.Bool("reset", false, "forget the stored conversation before starting (requires --history)")
	flag.Parse()
	os.Exit(run(*history, *reset))
}

func run(history string, reset bool) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		return 1
	}
	logger := cfg.Logger(os.Stderr)

	name, err := config.FirstModel(cfg.SmallModel, cfg.MediumModel, cfg.CompletionModel)
	if err != nil {
		fmt.Println("❌ Error: No model configured in .env file")
		fmt.Println("Please set COMPLETION_DEPLOYMENT_NAME, MEDIUM_DEPLOYMENT_MODEL_NAME, or SMALL_DEPLOYMENT_MODEL_NAME")
		return 1
	}
	model, err := modelclient.New(cfg, name, modelclient.WithLogger(logger))
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printBanner()

	userMCP := mcp.NewStreamableHTTPTool("User Server", cfg.UserMCPURL, mcp.WithLogger(logger))
	weatherMCP := mcp.NewStreamableHTTPTool("Weather Server", cfg.WeatherMCPURL, mcp.WithLogger(logger))
	logger.Info("initializing MCP server connections")
	tools, err := connectAll(ctx, userMCP, weatherMCP)
	if err != nil {
		logger.Error("mcp connection failed", "error", err)
		printStartupHints(os.Stdout, err, cfg.UserMCPURL, cfg.WeatherMCPURL)
		return 1
	}
	defer userMCP.Close()
	defer weatherMCP.Close()
	fmt.Printf("✅ Connected to User MCP Server (%s)\n", cfg.UserMCPURL)
	fmt.Printf("✅ Connected to Weather MCP Server (%s)\n", cfg.WeatherMCPURL)

	agent := newAgent(model, tools, logger)

	session := agent.NewSession()
	if history != "" {
		db, err := sqlitestore.Open(history)
		if err != nil {
			fmt.Printf("❌ Error: %v\n", err)
			return 1
		}
		defer db.Close()
		thread := db.Thread(historyThread)
		if reset {
			removed, err := thread.Clear(ctx)
			if err != nil {
				fmt.Printf("❌ Error: %v\n", err)
				return 1
			}
			logger.Info("conversation history cleared", "thread", historyThread, "messages", removed)
		}
		session = af.NewSession(af.WithSessionStore(thread), af.WithSessionID(historyThread))
		fmt.Printf("📝 Conversation history kept in %s\n", history)
	}

	printExamples()
	converse(ctx, agent, session, console.Stdio(), os.Stdout)
	return 0
}

func printBanner() {
	rule := strings.Repeat("=", 70)
	fmt.Printf("\n%s\nLocation-Aware Weather & Time Agent\n%s\n", rule, rule)
	fmt.Println("\n🤖 Demonstrating: Multi-turn conversation, MCP integration, tool coordination")
	fmt.Println("\nI can help you with:")
	fmt.Println("  • Weather information for your location")
	fmt.Println("  • Current time in your timezone")
	fmt.Println("  • Location updates when you move")
	fmt.Println("\n📍 Supported weather locations:")
	fmt.Println("   Seattle | New York | London | Berlin | Tokyo | Sydney")
	fmt.Println()
}

func printExamples() {
	rule := strings.Repeat("-", 70)
	fmt.Println("\nType 'exit' or 'quit' to end the conversation.")
	fmt.Println(rule)
	fmt.Println("\n💡 Try these example queries:")
	for _, q := range smokeQueries {
		fmt.Printf("   %q\n", q.query)
	}
	fmt.Println(rule)
}
