// Copyright (c) Microsoft. All rights reserved.

// Command magentic runs a manager-led team that recommends a meal.
//
// users_agent knows who the user is and what they may eat, manager_agent
// knows where they are and what time it is, chef_agent knows the ingredients
// and the weather. MagenticManager plans the work, picks the next speaker each
// round and writes the final recommendation.
//
//	export COMPLETION_DEPLOYMENT_NAME=gpt-4o
//	export MEDIUM_DEPLOYMENT_MODEL_NAME=gpt-4o-mini
//	export SMALL_DEPLOYMENT_MODEL_NAME=gpt-4o-mini
//	go run ./samples/magentic
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
	"github.com/jochenvw/agent-framework-samples/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	load := func(env string, names ...string) *modelclient.Model {
		name, err := config.FirstModel(names...)
		if err != nil {
			log.Fatalf("Set %s", env)
		}
		m, err := modelclient.New(cfg, name, modelclient.WithLogger(logger))
		if err != nil {
			log.Fatal(err)
		}
		return m
	}
	m := models{
		completion: load("COMPLETION_DEPLOYMENT_NAME", cfg.CompletionModel),
		medium:     load("MEDIUM_DEPLOYMENT_MODEL_NAME", cfg.MediumModel),
		small:      load("SMALL_DEPLOYMENT_MODEL_NAME", cfg.SmallModel),
	}

	fmt.Println("\n---------------------------------------------------------------------")
	fmt.Println("\nBuilding Magentic Workflow...")
	fmt.Println("\n---------------------------------------------------------------------")

	wf, err := newTeam(m, teamDeps{
		intn: sampletools.DefaultIntn,
		now:  time.Now,
		extra: func(string) []af.AgentOption {
			return []af.AgentOption{af.WithAgentMiddleware(af.LoggingMiddleware(logger))}
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("\nTask: %s\n", task)
	fmt.Println("\nStarting workflow execution...")
	fmt.Println("\nWrapping workflow as an agent and running...")

	if err := runTask(ctx, workflow.AsAgent(wf, "MagenticWorkflowAgent"), task, os.Stdout); err != nil {
		logger.Error("workflow execution failed", "error", err)
		fmt.Printf("\nWorkflow execution failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n\nWorkflow completed!")
}
