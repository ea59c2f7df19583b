// Copyright (c) Microsoft. All rights reserved.

// Package agentframework is the agent runtime shared by the samples: a chat
// [Agent] that calls tools in a loop, sessions that carry a conversation
// across runs, human approval for sensitive tools, and middleware around
// runs, model calls and tool calls.
//
// A model backend implements [ChatClient]; see the openai and anthropic
// packages.
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("WeatherAgent"),
//	    agentframework.WithInstructions("You are a helpful weather assistant."),
//	    agentframework.WithTools(getWeather),
//	)
//	resp, err := agent.Run(ctx, []agentframework.Message{
//	    agentframework.NewUserMessage("What is the weather in Seattle?"),
//	})
//
// # Tools
//
// [NewTypedTool] derives the JSON Schema from an argument struct:
//
//	type weatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=The city, e.g. Seattle,required"`
//	}
//
//	getWeather := agentframework.NewTypedTool("get_weather", "Get the weather for a location.",
//	    func(ctx context.Context, args weatherArgs) (any, error) {
//	        return lookup(args.Location)
//	    },
//	)
//
// Each run calls the model, invokes the tools it asked for and calls it
// again with the results until it answers in text. [InvocationConfig] bounds
// the number of model calls and consecutive tool failures;
// [WithMaxInvocations] bounds calls to a single tool.
//
// # Approvals
//
// A tool created with [WithApprovalRequired] is never invoked directly. The
// run stops and reports the call through [AgentResponse.UserInputRequests].
// Answer with [NewApprovalResponse] and run again with the request and the
// answer appended to the conversation:
//
//	for _, req := range resp.UserInputRequests() {
//	    msgs = append(msgs,
//	        agentframework.Message{Role: agentframework.RoleAssistant, Contents: agentframework.Contents{req}},
//	        agentframework.Message{Role: agentframework.RoleUser, Contents: agentframework.Contents{
//	            agentframework.NewApprovalResponse(req, approved),
//	        }},
//	    )
//	}
//	resp, err = agent.Run(ctx, msgs)
//
// Rejected calls are answered with [RejectedToolResult].
//
// # Sessions
//
// A [Session] keeps history in a [MessageStore] so later runs see earlier
// turns. Input and output are stored only when a run succeeds.
//
//	session := agent.NewSession()
//	agent.Run(ctx, first, agentframework.WithSession(session))
//	agent.Run(ctx, second, agentframework.WithSession(session))
package agentframework
