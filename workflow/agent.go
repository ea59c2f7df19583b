// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"context"

	"github.com/google/uuid"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// WorkflowAgent exposes a [Workflow] through the agent surface so it can be
// served, nested in another workflow or driven by the same code as an agent.
// Run options such as sessions are ignored; every run starts fresh.
type WorkflowAgent struct {
	id       string
	name     string
	workflow Workflow
}

var _ Participant = (*WorkflowAgent)(nil)

// AsAgent wraps wf as an agent called name. An empty name uses the
// workflow's name.
func AsAgent(wf Workflow, name string) *WorkflowAgent {
	if name == "" {
		name = wf.Name()
	}
	return &WorkflowAgent{id: uuid.NewString(), name: name, workflow: wf}
}

func (a *WorkflowAgent) ID() string          { return a.id }
func (a *WorkflowAgent) Name() string        { return a.name }
func (a *WorkflowAgent) Description() string { return a.workflow.Description() }

// Workflow returns the wrapped workflow.
func (a *WorkflowAgent) Workflow() Workflow { return a.workflow }

// Run executes the workflow. The response holds the output messages that
// were not user input.
func (a *WorkflowAgent) Run(ctx context.Context, messages []af.Message, _ ...af.RunOption) (*af.AgentResponse, error) {
	res, err := a.workflow.Run(ctx, messages)
	if err != nil {
		return nil, err
	}
	resp := &af.AgentResponse{ResponseID: uuid.NewString(), AgentID: a.id}
	for _, m := range res.Outputs {
		if m.Role == af.RoleUser {
			continue
		}
		if m.AuthorName == "" {
			m.AuthorName = a.name
		}
		resp.Messages = append(resp.Messages, m)
	}
	for _, e := range res.Events {
		if e.Type == EventAgentResponse && e.Response != nil {
			resp.Usage.Add(e.Response.Usage)
		}
	}
	return resp, nil
}

// RunStream executes the workflow, forwarding participant deltas tagged with
// the participant name and finally the output messages.
func (a *WorkflowAgent) RunStream(ctx context.Context, messages []af.Message, _ ...af.RunOption) (*af.AgentResponseStream, error) {
	events, err := a.workflow.RunStream(ctx, messages)
	if err != nil {
		return nil, err
	}
	responseID := uuid.NewString()

	updates := af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.AgentResponseUpdate) error {
		defer events.Close()
		send := func(u af.AgentResponseUpdate) error {
			u.AgentID = a.id
			u.ResponseID = responseID
			select {
			case ch <- u:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for {
			e, ok, err := events.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			switch e.Type {
			case EventAgentDelta:
				u := *e.Update
				if u.AuthorName == "" {
					u.AuthorName = e.Source
				}
				if err := send(u); err != nil {
					return err
				}
			case EventOutput:
				for _, m := range e.Output {
					if m.Role == af.RoleUser {
						continue
					}
					author := m.AuthorName
					if author == "" {
						author = a.name
					}
					messageID := m.MessageID
					if messageID == "" {
						messageID = uuid.NewString()
					}
					if err := send(af.AgentResponseUpdate{
						Role:       m.Role,
						AuthorName: author,
						MessageID:  messageID,
						Contents:   m.Contents,
					}); err != nil {
						return err
					}
				}
			}
		}
	})
	return af.NewAgentResponseStream(updates), nil
}
