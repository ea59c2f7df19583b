// Copyright (c) Microsoft. All rights reserved.

// Command humanintheloop demonstrates tools that need the user's approval.
//
// get_weather runs freely; get_weather_detail stops the run with an approval
// request that is answered on the console. The conversation is replayed
// without a session, first non-streaming and then streaming.
//
//	go run ./samples/humanintheloop
//	go run ./samples/humanintheloop --auto-approve
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
)

const query = "Can you give me an update of the weather in LA and Portland and detailed weather for Seattle?"

func main() {
	autoApprove := flag.Bool("auto-approve", false, "approve every tool call without asking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	name, err := config.FirstModel(cfg.MediumModel)
	if err != nil {
		log.Fatal("Set MEDIUM_DEPLOYMENT_MODEL_NAME")
	}
	model, err := modelclient.New(cfg, name, modelclient.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	con := console.Stdio(console.WithAutoApprove(*autoApprove))
	decide := func(*af.ApprovalRequestContent) bool { return con.Confirm("\nApprove function call?") }

	fmt.Println("=== Demonstration of a tool with approvals ===")
	for _, streaming := range []bool{false, true} {
		if err := runWeatherAgent(ctx, model, logger, streaming, decide); err != nil {
			log.Printf("Error: %v", err)
			os.Exit(1)
		}
	}
}

func runWeatherAgent(ctx context.Context, model *modelclient.Model, logger *slog.Logger, streaming bool, decide decideFunc) error {
	mode := "Non-Streaming"
	if streaming {
		mode = "Streaming"
	}
	fmt.Printf("\n=== Weather Agent with Approval Required (%s) ===\n\n", mode)

	opts := []af.AgentOption{
		af.WithName("WeatherAgent"),
		af.WithInstructions("You are a helpful weather assistant. Use the get_weather tool to provide weather information."),
		af.WithTools(
			sampletools.WeatherTool(sampletools.DefaultIntn),
			sampletools.WeatherDetailTool(sampletools.DefaultIntn),
		),
		af.WithFunctionMiddleware(af.FunctionLoggingMiddleware(logger)),
		af.WithLogger(logger),
	}
	agent := af.NewAgent(model.Client, append(opts, model.AgentOptions...)...)

	fmt.Printf("User: %s\n", query)
	if streaming {
		fmt.Printf("\n%s: ", agent.Name())
		if err := handleApprovalsStreaming(ctx, agent, query, os.Stdout, decide); err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	resp, err := handleApprovals(ctx, agent, query, os.Stdout, decide)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s: %s\n\n", agent.Name(), resp.Text())
	return nil
}
