// Copyright (c) Microsoft. All rights reserved.

// Package sampletools holds the mock tools the samples give their agents.
// Randomized tools take an [Intn] so tests can fix the outcome.
package sampletools

import (
	"context"
	"fmt"
	"math/rand/v2"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// Intn returns a value in [0, n).
type Intn func(n int) int

// DefaultIntn draws from math/rand/v2.
var DefaultIntn Intn = rand.IntN

// Conditions are the weather conditions the weather tools pick from.
var Conditions = []string{"sunny", "cloudy", "raining", "snowing", "clear"}

// between returns a value in [lo, hi).
func (r Intn) between(lo, hi int) int { return lo + r(hi-lo) }

func (r Intn) condition() string { return Conditions[r(len(Conditions))] }

type locationArgs struct {
	Location string `json:"location" jsonschema:"description=The city and state, e.g. San Francisco CA,required"`
}

// Weather returns a one-line mock weather report.
func Weather(r Intn, location string) string {
	return fmt.Sprintf("The weather in %s is %s and %d°C.", location, r.condition(), r.between(-10, 30))
}

// WeatherDetail returns a mock report with humidity and tomorrow's forecast.
func WeatherDetail(r Intn, location string) string {
	return fmt.Sprintf("The weather in %s is %s and %d°C, with a humidity of 88%%. Tomorrow will be %s with a high of %d°C.",
		location, r.condition(), r.between(-10, 30), r.condition(), r.between(-10, 30))
}

// WeatherTool is get_weather. It never requires approval.
func WeatherTool(r Intn) af.Tool {
	return af.NewTypedTool("get_weather", "Get the current weather for a given location.",
		func(ctx context.Context, a locationArgs) (any, error) {
			return Weather(r, a.Location), nil
		})
}

// WeatherDetailTool is get_weather_detail. Every call needs approval.
func WeatherDetailTool(r Intn) af.Tool {
	return af.NewTypedTool("get_weather_detail", "Get the current weather for a given location.",
		func(ctx context.Context, a locationArgs) (any, error) {
			return WeatherDetail(r, a.Location), nil
		},
		af.WithApprovalRequired())
}
