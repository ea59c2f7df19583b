// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// decideFunc answers one approval request.
type decideFunc func(req *af.ApprovalRequestContent) bool

// followUp builds the input for the next run without a session: the original
// query, then each approval request followed by the user's answer.
func followUp(query string, reqs []*af.ApprovalRequestContent, decide decideFunc) []af.Message {
	msgs := []af.Message{af.NewUserMessage(query)}
	for _, req := range reqs {
		approved := decide(req)
		msgs = append(msgs,
			af.Message{Role: af.RoleAssistant, Contents: af.Contents{req}},
			af.Message{Role: af.RoleUser, Contents: af.Contents{af.NewApprovalResponse(req, approved)}},
		)
	}
	return msgs
}

func describe(w io.Writer, agentName string, req *af.ApprovalRequestContent) {
	fmt.Fprintf(w, "\nUser Input Request for function from %s:\n  Function: %s\n  Arguments: %s\n",
		agentName, req.Name, req.Arguments)
}

// handleApprovals runs query and keeps answering approval requests until the
// agent returns a response without any.
func handleApprovals(ctx context.Context, agent *af.Agent, query string, w io.Writer, decide decideFunc) (*af.AgentResponse, error) {
	resp, err := agent.Run(ctx, []af.Message{af.NewUserMessage(query)})
	if err != nil {
		return nil, err
	}
	for {
		reqs := resp.UserInputRequests()
		if len(reqs) == 0 {
			return resp, nil
		}
		for _, req := range reqs {
			describe(w, agent.Name(), req)
		}
		resp, err = agent.Run(ctx, followUp(query, reqs, decide))
		if err != nil {
			return nil, err
		}
	}
}

// handleApprovalsStreaming is handleApprovals with streamed output. Text is
// written to w as it arrives; approval requests are collected from the
// updates and answered once the stream ends.
func handleApprovalsStreaming(ctx context.Context, agent *af.Agent, query string, w io.Writer, decide decideFunc) error {
	input := []af.Message{af.NewUserMessage(query)}
	for {
		stream, err := agent.RunStream(ctx, input)
		if err != nil {
			return err
		}
		var reqs []*af.ApprovalRequestContent
		for u, err := range stream.All(ctx) {
			if err != nil {
				stream.Close()
				return err
			}
			if text := u.Text(); text != "" {
				fmt.Fprint(w, text)
			}
			reqs = append(reqs, u.UserInputRequests()...)
		}
		stream.Close()

		if len(reqs) == 0 {
			return nil
		}
		for _, req := range reqs {
			describe(w, agent.Name(), req)
		}
		input = followUp(query, reqs, decide)
	}
}
