// Copyright (c) Microsoft. All rights reserved.

// Command chat wraps a chat model in an agent with weather and clock tools
// and talks to it on the console, or serves it over HTTP with --serve.
//
//	export AZURE_OPENAI_ENDPOINT=https://<resource>.openai.azure.com
//	export COMPLETION_DEPLOYMENT_NAME=gpt-4o
//	go run ./samples/chat
//	go run ./samples/chat --serve --port 8080
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/metrics"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
	"github.com/jochenvw/agent-framework-samples/samples/internal/server"
)

func main() {
	modelName := flag.String("model", "", "model or deployment name (default COMPLETION_DEPLOYMENT_NAME)")
	serve := flag.Bool("serve", false, "serve the agent over HTTP")
	port := flag.String("port", "8080", "listen port for --serve")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	name, err := config.FirstModel(*modelName, cfg.CompletionModel)
	if err != nil {
		log.Fatal("Set COMPLETION_DEPLOYMENT_NAME or pass --model")
	}
	model, err := modelclient.New(cfg, name, modelclient.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Using %s model %s\n", model.Provider, model.Name)

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	agent := newAgent(model, logger, time.Now,
		af.WithAgentMiddleware(af.LoggingMiddleware(logger), rec.AgentMiddleware()),
		af.WithFunctionMiddleware(rec.FunctionMiddleware(), af.FunctionLoggingMiddleware(logger)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !*serve {
		chat(ctx, agent, console.Stdio())
		return
	}
	if cfg.AgentAPIKey == "" {
		logger.Warn("AGENT_API_KEY not set, /invoke is unauthenticated")
	}
	srv := server.New(agent,
		server.WithAPIKey(cfg.AgentAPIKey),
		server.WithMetrics(rec.Handler(reg)),
		server.WithLogger(logger),
	)
	fmt.Printf("Listening on http://localhost:%s (/health, /.well-known/agent.json, /invoke, /metrics)\n", *port)
	if err := srv.ListenAndServe(ctx, ":"+*port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func newAgent(model *modelclient.Model, logger *slog.Logger, now func() time.Time, extra ...af.AgentOption) *af.Agent {
	opts := []af.AgentOption{
		af.WithName("assistant"),
		af.WithDescription("A concise assistant that can look up the weather and the time."),
		af.WithInstructions("You are a helpful assistant. Use get_weather for weather questions and get_time for the time. Keep responses concise."),
		af.WithTools(sampletools.WeatherTool(sampletools.DefaultIntn), timeTool(now)),
		af.WithLogger(logger),
	}
	opts = append(opts, extra...)
	return af.NewAgent(model.Client, append(opts, model.AgentOptions...)...)
}
