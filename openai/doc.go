// Copyright (c) Microsoft. All rights reserved.

// Package openai is an [agentframework.ChatClient] for the Chat Completions
// API and the servers that speak it: OpenAI, Azure OpenAI deployments and
// local runtimes such as Foundry Local or Ollama.
//
//	client := openai.New(
//	    openai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    openai.WithModel("gpt-4o-mini"),
//	)
//	agent := agentframework.NewAgent(client)
//
// An Azure OpenAI deployment is addressed through its base URL and api
// version, and authenticates with either a resource key or a Microsoft Entra
// ID credential:
//
//	client := openai.New(
//	    openai.WithBaseURL(endpoint+"/openai/deployments/"+deployment),
//	    openai.WithAPIVersion("2024-10-21"),
//	    openai.WithAzureCredential(cred),
//	)
//
// Small local models often answer a tool request with the call written out
// as text. [TextToolCallMiddleware] turns such replies back into function
// calls.
package openai
