// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
)

// roleClient answers with the role named in the instructions.
type roleClient struct {
	fail string
}

func (c roleClient) Response(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	role := "unknown"
	for _, r := range []string{"researcher", "marketing", "legal"} {
		if strings.Contains(opts.Instructions, r) {
			role = r
			break
		}
	}
	if role == c.fail {
		return nil, errors.New(role + " unavailable")
	}
	return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage(role + " view on " + msgs[len(msgs)-1].Text())}}, nil
}

func (c roleClient) StreamResponse(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		resp, err := c.Response(ctx, msgs, opts)
		if err != nil {
			return err
		}
		m := resp.Messages[0]
		ch <- af.ChatResponseUpdate{Role: m.Role, Contents: m.Contents}
		return nil
	}), nil
}

func models(c af.ChatClient) (*modelclient.Model, *modelclient.Model) {
	return &modelclient.Model{Name: "medium", Client: c}, &modelclient.Model{Name: "small", Client: c}
}

func TestReview_PrintsEveryReviewerInOrder(t *testing.T) {
	medium, small := models(roleClient{})
	var named []string
	wf, err := newWorkflow(medium, small, func(name string) []af.AgentOption {
		named = append(named, name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"researcher", "marketer", "legal"}, named)
	assert.Len(t, wf.Participants(), 3)

	var out bytes.Buffer
	require.NoError(t, review(context.Background(), wf, "e-bikes", &out))

	got := out.String()
	assert.Contains(t, got, "===== researcher =====\nresearcher view on e-bikes")
	assert.Contains(t, got, "===== marketer =====\nmarketing view on e-bikes")
	assert.Contains(t, got, "===== legal =====\nlegal view on e-bikes")
	assert.Less(t, strings.Index(got, "researcher ====="), strings.Index(got, "legal ====="))
	assert.NotContains(t, got, "=====  =====")
}

func TestReview_FailingReviewerFailsRun(t *testing.T) {
	medium, small := models(roleClient{fail: "legal"})
	wf, err := newWorkflow(medium, small, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	err = review(context.Background(), wf, "e-bikes", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legal unavailable")
	assert.Empty(t, out.String())
}
