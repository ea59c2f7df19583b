// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jochenvw/agent-framework-samples/mcp"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
)

var (
	errUsername = errors.New("username is required")
	errLocation = errors.New("location is required")
)

// locations remembers where each user said they are.
type locations struct {
	mu   sync.Mutex
	byID map[string]string
}

func newLocations() *locations {
	return &locations{byID: make(map[string]string)}
}

func key(username string) string { return strings.ToLower(strings.TrimSpace(username)) }

func (l *locations) get(username string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loc, ok := l.byID[key(username)]
	return loc, ok
}

func (l *locations) move(username, location string) error {
	if key(username) == "" {
		return errUsername
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return errLocation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[key(username)] = location
	return nil
}

type usernameArgs struct {
	Username string `json:"username" jsonschema:"the username as returned by get_current_user"`
}

type moveArgs struct {
	Username string `json:"username" jsonschema:"the username as returned by get_current_user"`
	Location string `json:"location" jsonschema:"the city the user is now in"`
}

func newServer(store *locations) *mcp.Server {
	s := mcp.NewServer("User", "1.0.0")
	mcp.AddTool(s, "get_current_user", "Get the username of the current user.",
		func(ctx context.Context, _ struct{}) (string, error) { return sampletools.CurrentUser, nil })
	mcp.AddTool(s, "get_current_location", "Get the location stored for a user.",
		func(ctx context.Context, in usernameArgs) (string, error) {
			loc, ok := store.get(in.Username)
			if !ok {
				return fmt.Sprintf("No location stored for %s yet.", in.Username), nil
			}
			return fmt.Sprintf("%s is in %s.", in.Username, loc), nil
		})
	mcp.AddTool(s, "move", "Store the user's new location.",
		func(ctx context.Context, in moveArgs) (string, error) {
			if err := store.move(in.Username, in.Location); err != nil {
				return "", err
			}
			return fmt.Sprintf("Location of %s updated to %s.", in.Username, strings.TrimSpace(in.Location)), nil
		})
	return s
}
