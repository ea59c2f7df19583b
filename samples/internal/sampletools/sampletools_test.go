// Copyright (c) Microsoft. All rights reserved.

package sampletools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// fixed always draws v, clamped into range.
func fixed(v int) Intn {
	return func(n int) int { return min(v, n-1) }
}

func TestWeather(t *testing.T) {
	assert.Equal(t, "The weather in LA is sunny and -10°C.", Weather(fixed(0), "LA"))
	assert.Equal(t, "The weather in LA is raining and -8°C.", Weather(fixed(2), "LA"))
	assert.Equal(t,
		"The weather in Seattle is cloudy and -9°C, with a humidity of 88%. Tomorrow will be cloudy with a high of -9°C.",
		WeatherDetail(fixed(1), "Seattle"))
}

func TestWeather_Ranges(t *testing.T) {
	// The largest draw reaches the top of every range.
	assert.Equal(t, "The weather in X is clear and 29°C.", Weather(fixed(100), "X"))
	assert.Equal(t, "The user's total food budget is 50€ (hard limit).", BudgetLimit(fixed(100)))
	assert.Equal(t, "The user's total food budget is 20€ (hard limit).", BudgetLimit(fixed(0)))
}

func TestWeatherTools_Approval(t *testing.T) {
	assert.Equal(t, af.ApprovalNever, WeatherTool(fixed(0)).Approval())
	assert.Equal(t, af.ApprovalAlways, WeatherDetailTool(fixed(0)).Approval())

	out, err := WeatherTool(fixed(0)).Invoke(context.Background(), json.RawMessage(`{"location":"Portland"}`))
	require.NoError(t, err)
	assert.Equal(t, "The weather in Portland is sunny and -10°C.", out)
}

func TestUserPreferences(t *testing.T) {
	assert.Equal(t,
		"For user Dennis, preferences are: wants to eat now, prefers delivery to the home address, and must strictly stay within the budget limit.",
		UserPreferences(fixed(0), "Dennis"))
	assert.Equal(t,
		"For user Dennis, preferences are: wants to eat later, prefers dine in at a nearby restaurant, and can exceed the budget limit if the meal is exceptional.",
		UserPreferences(fixed(9), "Dennis"))
}

func TestLocationAndTime(t *testing.T) {
	assert.Equal(t, "Europe/Berlin", LocationOfUser("Dennis"))
	assert.Equal(t, "America/New_York", LocationOfUser("alice"))

	now := time.Date(2025, 1, 15, 13, 30, 5, 0, time.UTC)
	assert.Equal(t, "02:30:05 PM", CurrentTime("Europe/Berlin", now))
	for _, zone := range []string{"Mars/Olympus", "", "Local"} {
		assert.Equal(t, "Sorry, I couldn't find the timezone for that location.", CurrentTime(zone, now), "zone %q", zone)
	}
}

func TestToolSets(t *testing.T) {
	names := func(ts []af.Tool) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Name())
		}
		return out
	}
	users := UserTools(fixed(0))
	assert.Equal(t, []string{"get_current_username", "get_medical_history", "get_budget_limit", "get_user_preferences"}, names(users))
	for _, tool := range users {
		assert.Zero(t, tool.(*af.FunctionTool).MaxInvocations(), tool.Name())
	}
	assert.Equal(t, []string{"get_current_location_of_user", "get_current_time"}, names(LocationTools(time.Now)))
	assert.Equal(t, []string{"get_available_ingredients", "get_weather"}, names(ChefTools()))

	out, err := ChefTools()[1].Invoke(context.Background(), json.RawMessage(`{"city":"Berlin"}`))
	require.NoError(t, err)
	assert.Equal(t, "The weather in Berlin is 73 degrees and Sunny.", out)
}

func TestTimeZone(t *testing.T) {
	assert.Equal(t, "Pacific Time (UTC-8)", TimeZone(" Seattle "))
	assert.Equal(t, "Eastern Time (UTC-5)", TimeZone("NEW YORK"))
	assert.Equal(t, "Time zone data not available for Paris", TimeZone("Paris"))
}
