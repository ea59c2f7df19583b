// Copyright (c) Microsoft. All rights reserved.

// Command parallelagents reviews a prompt with three agents in parallel.
//
// A researcher, a marketer and a legal reviewer receive the same prompt at
// the same time; their answers are printed per author once all have
// finished. With --serve the workflow is exposed over HTTP instead.
//
//	go run ./samples/parallelagents "We are launching a budget e-bike for students."
//	go run ./samples/parallelagents --serve
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/metrics"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/server"
	"github.com/jochenvw/agent-framework-samples/workflow"
)

const workflowName = "ContentReviewWorkflow"

func main() {
	serve := flag.Bool("serve", false, "run as HTTP server instead of reviewing one prompt")
	port := flag.String("port", "8093", "HTTP listen port (serve mode)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	mediumName, err := config.FirstModel(cfg.MediumModel)
	if err != nil {
		log.Fatal("Set MEDIUM_DEPLOYMENT_MODEL_NAME")
	}
	smallName, err := config.FirstModel(cfg.SmallModel, cfg.MediumModel)
	if err != nil {
		log.Fatal("Set SMALL_DEPLOYMENT_MODEL_NAME")
	}
	medium, err := modelclient.New(cfg, mediumName, modelclient.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	small, err := modelclient.New(cfg, smallName, modelclient.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	wf, err := newWorkflow(medium, small, func(name string) []af.AgentOption {
		return []af.AgentOption{
			af.WithLogger(logger.With("reviewer", name)),
			af.WithAgentMiddleware(af.LoggingMiddleware(logger), rec.AgentMiddleware()),
		}
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *serve {
		srv := server.New(workflow.AsAgent(wf, workflowName),
			server.WithAPIKey(cfg.AgentAPIKey),
			server.WithMetrics(rec.Handler(reg)),
			server.WithLogger(logger),
		)
		fmt.Printf("Starting %s\nAvailable at: http://localhost:%s\n", workflowName, *port)
		if err := srv.ListenAndServe(ctx, ":"+*port); err != nil {
			log.Fatalf("server: %v", err)
		}
		return
	}

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		line, ok := console.Stdio().ReadLine("Prompt: ")
		if !ok || strings.TrimSpace(line) == "" {
			log.Fatal("no prompt given")
		}
		prompt = line
	}
	if err := review(ctx, wf, prompt, os.Stdout); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// agentOptions returns extra options for the agent called name.
type agentOptions func(name string) []af.AgentOption

type reviewer struct {
	name         string
	instructions string
	model        *modelclient.Model
}

func newWorkflow(medium, small *modelclient.Model, extra agentOptions) (*workflow.ConcurrentWorkflow, error) {
	reviewers := []reviewer{
		{
			name:         "researcher",
			instructions: "You're an expert market and product researcher. Given a prompt, provide concise, factual insights, opportunities, and risks.",
			model:        medium,
		},
		{
			name:         "marketer",
			instructions: "You're a creative marketing strategist. Craft compelling value propositions and target messaging aligned to the prompt.",
			model:        small,
		},
		{
			name:         "legal",
			instructions: "You're a cautious legal/compliance reviewer. Highlight constraints, disclaimers, and policy concerns based on the prompt.",
			model:        medium,
		},
	}

	var participants []workflow.Participant
	for _, r := range reviewers {
		opts := []af.AgentOption{af.WithName(r.name), af.WithInstructions(r.instructions)}
		opts = append(opts, r.model.AgentOptions...)
		if extra != nil {
			opts = append(opts, extra(r.name)...)
		}
		participants = append(participants, af.NewAgent(r.model.Client, opts...))
	}

	return workflow.NewConcurrentBuilder().
		Name(workflowName).
		Description("Researcher, marketer and legal reviewer look at the same prompt in parallel.").
		Participants(participants...).
		Build()
}

// review runs the workflow on prompt and writes each reviewer's answer.
func review(ctx context.Context, wf workflow.Workflow, prompt string, w io.Writer) error {
	res, err := wf.Run(ctx, []af.Message{af.NewUserMessage(prompt)})
	if err != nil {
		return err
	}
	for _, m := range res.Outputs {
		if m.Role == af.RoleUser {
			continue
		}
		fmt.Fprintf(w, "===== %s =====\n%s\n\n", m.AuthorName, m.Text())
	}
	return nil
}
