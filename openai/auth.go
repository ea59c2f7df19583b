// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// cognitiveServicesScope is the Entra ID scope of Azure OpenAI.
const cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// tokenRefreshMargin is how long before expiry a cached token is replaced.
const tokenRefreshMargin = 5 * time.Minute

// authorizer adds credentials to an outgoing request.
type authorizer interface {
	authorize(ctx context.Context, req *http.Request) error
}

type noAuth struct{}

func (noAuth) authorize(context.Context, *http.Request) error { return nil }

// bearerKey is OpenAI key authentication.
type bearerKey string

func (k bearerKey) authorize(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+string(k))
	return nil
}

// azureKey is Azure OpenAI resource key authentication.
type azureKey string

func (k azureKey) authorize(_ context.Context, req *http.Request) error {
	req.Header.Set("api-key", string(k))
	return nil
}

// entraToken authenticates with tokens from an Azure credential. A token is
// reused until it is close to expiring.
type entraToken struct {
	cred azcore.TokenCredential
	now  func() time.Time

	mu    sync.Mutex
	token azcore.AccessToken
}

func newEntraToken(cred azcore.TokenCredential) *entraToken {
	return &entraToken{cred: cred, now: time.Now}
}

func (e *entraToken) authorize(ctx context.Context, req *http.Request) error {
	token, err := e.get(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (e *entraToken) get(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token.Token != "" && e.now().Add(tokenRefreshMargin).Before(e.token.ExpiresOn) {
		return e.token.Token, nil
	}
	tok, err := e.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{cognitiveServicesScope}})
	if err != nil {
		return "", fmt.Errorf("openai: get entra token: %w", err)
	}
	e.token = tok
	return tok.Token, nil
}
