// Copyright (c) Microsoft. All rights reserved.

package sampletools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// CurrentUser is the user the dining tools pretend is signed in.
const CurrentUser = "Dennis"

type usernameArgs struct {
	Username string `json:"username" jsonschema:"description=The username,required"`
}

type cityArgs struct {
	City string `json:"city" jsonschema:"description=The city name,required"`
}

type zoneArgs struct {
	Location string `json:"location" jsonschema:"description=An IANA time zone such as Europe/Berlin,required"`
}

type ingredientsArgs struct {
	Location string `json:"location" jsonschema:"description=Where the ingredients are bought,required"`
}

// MedicalHistory reports the user's allergies.
func MedicalHistory(username string) string {
	return username + " has an allergy to peanuts and eggs."
}

// BudgetLimit is a random hard budget between 20€ and 50€.
func BudgetLimit(r Intn) string {
	return fmt.Sprintf("The user's total food budget is %d€ (hard limit).", r.between(20, 51))
}

// UserPreferences states eating time, delivery mode and budget policy.
func UserPreferences(r Intn, username string) string {
	timing := pick(r, "eat now", "eat later")
	mode := pick(r,
		"delivery to the home address",
		"delivery to the office address",
		"dine in at a nearby restaurant",
	)
	budget := pick(r,
		"must strictly stay within the budget limit",
		"can exceed the budget limit if the meal is exceptional",
	)
	return fmt.Sprintf("For user %s, preferences are: wants to %s, prefers %s, and %s.", username, timing, mode, budget)
}

// LocationOfUser maps a username to an IANA time zone.
func LocationOfUser(username string) string {
	if strings.Contains(username, CurrentUser) {
		return "Europe/Berlin"
	}
	return "America/New_York"
}

// CurrentTime formats now in the named IANA zone as 03:04:05 PM. Only
// IANA names are accepted; "" and "Local" are not zones.
func CurrentTime(zone string, now time.Time) string {
	loc, err := loadZone(zone)
	if err != nil {
		return "Sorry, I couldn't find the timezone for that location."
	}
	return now.In(loc).Format("03:04:05 PM")
}

func loadZone(zone string) (*time.Location, error) {
	if zone == "" || zone == "Local" {
		return nil, fmt.Errorf("unknown time zone %q", zone)
	}
	return time.LoadLocation(zone)
}

// AvailableIngredients lists ingredients with euro prices.
func AvailableIngredients(location string) string {
	return "Available ingredients in " + location + " with typical prices are: " +
		"eggs (2.50€), milk (1.80€), bread (3.00€), peanuts (4.00€), beer (2.00€), " +
		"wine (8.00€), salmon (12.00€), spinach (2.20€), oil (3.50€) and butter (2.70€)."
}

// CityWeather is the chef's fixed weather statement.
func CityWeather(city string) string {
	return "The weather in " + city + " is 73 degrees and Sunny."
}

func pick(r Intn, options ...string) string { return options[r(len(options))] }

// UserTools are the users_agent tools.
func UserTools(r Intn) []af.Tool {
	return []af.Tool{
		af.NewTool("get_current_username", "Get the username of the current user.",
			json.RawMessage(`{"type":"object","properties":{}}`),
			func(ctx context.Context, _ json.RawMessage) (any, error) { return CurrentUser, nil }),
		af.NewTypedTool("get_medical_history", "Get the medical history for a given username with allergies and restrictions.",
			func(ctx context.Context, a usernameArgs) (any, error) { return MedicalHistory(a.Username), nil }),
		af.NewTypedTool("get_budget_limit", "Return a food budget limit in euros that is a hard upper limit for meals.",
			func(ctx context.Context, a usernameArgs) (any, error) { return BudgetLimit(r), nil }),
		af.NewTypedTool("get_user_preferences", "Return the user's food preferences: timing, delivery or dine in, and budget policy.",
			func(ctx context.Context, a usernameArgs) (any, error) { return UserPreferences(r, a.Username), nil }),
	}
}

// LocationTools are the manager_agent tools. now is read on every call.
func LocationTools(now func() time.Time) []af.Tool {
	return []af.Tool{
		af.NewTypedTool("get_current_location_of_user", "Get the current timezone location of the user for a given username.",
			func(ctx context.Context, a usernameArgs) (any, error) { return LocationOfUser(a.Username), nil }),
		af.NewTypedTool("get_current_time", "Get the current time in the given IANA time zone.",
			func(ctx context.Context, a zoneArgs) (any, error) { return CurrentTime(a.Location, now()), nil }),
	}
}

// ChefTools are the chef_agent tools.
func ChefTools() []af.Tool {
	return []af.Tool{
		af.NewTypedTool("get_available_ingredients", "Get the available ingredients and their prices in euros for a given location.",
			func(ctx context.Context, a ingredientsArgs) (any, error) { return AvailableIngredients(a.Location), nil }),
		af.NewTypedTool("get_weather", "Gets a statement about the current weather in the given city.",
			func(ctx context.Context, a cityArgs) (any, error) { return CityWeather(a.City), nil }),
	}
}
