// Copyright (c) Microsoft. All rights reserved.

package main

import "strings"

type smokeQuery struct {
	description string
	query       string
	valid       func(lower string) bool
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// smokeQueries is a five-turn conversation with a check for each answer.
// Checks run on the lower-cased response.
var smokeQueries = []smokeQuery{
	{
		description: "Establish location",
		query:       "I am currently in London",
		valid:       func(s string) bool { return strings.Contains(s, "london") },
	},
	{
		description: "Get weather for current location",
		query:       "What is the weather now here?",
		valid: func(s string) bool {
			return containsAny(s, "weather", "temperature", "sunny", "cloudy", "rainy",
				"clear", "overcast", "°", "degrees", "wind", "humid")
		},
	},
	{
		description: "Get current time",
		query:       "What time is it for me right now?",
		valid:       func(s string) bool { return containsAny(s, "time", ":", "am", "pm", "o'clock", "clock") },
	},
	{
		description: "Update location and get weather",
		query:       "I moved to Berlin, what is the weather like today?",
		valid: func(s string) bool {
			return strings.Contains(s, "berlin") && containsAny(s, "weather", "temperature", "sunny", "cloudy", "clear")
		},
	},
	{
		description: "Recall location",
		query:       "Can you remind me where I said I am based?",
		valid:       func(s string) bool { return strings.Contains(s, "berlin") },
	},
}

// validate checks the response to the n-th smoke query, counting from 1.
func validate(n int, response string) bool {
	if n < 1 || n > len(smokeQueries) {
		return false
	}
	return smokeQueries[n-1].valid(strings.ToLower(response))
}
