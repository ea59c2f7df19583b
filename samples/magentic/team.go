// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
	"github.com/jochenvw/agent-framework-samples/workflow"
)

const task = "I want to have something to eat. What would you recommend for me for now?"

var limits = workflow.MagenticOptions{MaxRoundCount: 20, MaxStallCount: 4, MaxResetCount: 1}

// models holds the clients per size. Users and chef run on the small model,
// the location manager on the medium one and the orchestrator on the
// completion model.
type models struct {
	completion, medium, small *modelclient.Model
}

// teamDeps are the swappable parts of the tools.
type teamDeps struct {
	intn  sampletools.Intn
	now   func() time.Time
	extra func(name string) []af.AgentOption
}

func newAgent(m *modelclient.Model, deps teamDeps, name string, opts ...af.AgentOption) *af.Agent {
	opts = append([]af.AgentOption{af.WithName(name)}, opts...)
	opts = append(opts, m.AgentOptions...)
	if deps.extra != nil {
		opts = append(opts, deps.extra(name)...)
	}
	return af.NewAgent(m.Client, opts...)
}

func newTeam(m models, deps teamDeps) (*workflow.MagenticWorkflow, error) {
	users := newAgent(m.small, deps, "users_agent",
		af.WithDescription("Assistant focused on user-specific information: identity, medical history, allergies, food budget constraints and general dining preferences."),
		af.WithInstructions("You are responsible ONLY for user-specific context. "+
			"Use your tools to find the current username, the user's medical history (including allergies and restrictions), "+
			"a random but realistic budget limit between 20€ and 50€, and clear dining preferences "+
			"(eat now or later, delivery address vs. dine in, and whether the user must stay within budget or is allowed to go above it). "+
			"Do not make meal recommendations or reason about ingredients directly; instead, provide clear, concise facts that other agents can rely on. "+
			"Always explicitly mention allergens, the exact budget number in euros, and all dining preferences when asked about them."),
		af.WithTools(sampletools.UserTools(deps.intn)...),
	)

	manager := newAgent(m.medium, deps, "manager_agent",
		af.WithDescription("Assistant that manages contextual information about the user's location and current local time."),
		af.WithInstructions("You are responsible ONLY for resolving the user's physical location and the current local time at that location. "+
			"Use your tools to first determine the location from the username when necessary, and then compute an accurate current time string for that location. "+
			"Do NOT suggest meals, reason about ingredients, or discuss allergies or budget. "+
			"Instead, return short factual statements like 'The user is in X' or 'The local time in X is Y'."),
		af.WithTools(sampletools.LocationTools(deps.now)...),
	)

	chef := newAgent(m.small, deps, "chef_agent",
		af.WithDescription("A helpful assistant that can suggest meals and dishes for the right time of the day, location, available ingredients, user preferences and allergies."),
		af.WithInstructions("Recommend dishes for the right time of the day, location, available ingredients and user preferences. "+
			"Always ask for food preferences and allergies. Never suggest a dish until allergies are clarified."),
		af.WithTools(sampletools.ChefTools()...),
	)

	orchestrator := newAgent(m.completion, deps, "MagenticManager",
		af.WithDescription("Orchestrator that coordinates the user, location, and chef agents"),
		af.WithInstructions("You coordinate a team of agents to help users find the perfect meal. "+
			"First gather user info (identity, allergies, budget, preferences), "+
			"then get location and time context, and finally have the chef recommend meals."),
	)

	return workflow.NewMagenticBuilder().
		Name("MealPlanningWorkflow").
		Description("A manager-led team that recommends a meal for the current user.").
		Participants(users, manager, chef).
		WithManager(orchestrator, limits).
		Build()
}

// streamer is the part of an agent runTask needs.
type streamer interface {
	RunStream(ctx context.Context, messages []af.Message, opts ...af.RunOption) (*af.AgentResponseStream, error)
}

// runTask streams the team's work on task to w. A header is written each
// time a different agent starts speaking.
func runTask(ctx context.Context, agent streamer, task string, w io.Writer) error {
	stream, err := agent.RunStream(ctx, []af.Message{af.NewUserMessage(task)})
	if err != nil {
		return err
	}
	defer stream.Close()

	author := ""
	for {
		u, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		text := u.Text()
		if text == "" {
			continue
		}
		if u.AuthorName != author {
			author = u.AuthorName
			fmt.Fprintf(w, "\n\n[%s]\n", author)
		}
		fmt.Fprint(w, text)
	}
}
