// Copyright (c) Microsoft. All rights reserved.

package sampletools

import (
	"context"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

var timeZones = map[string]string{
	"seattle":       "Pacific Time (UTC-8)",
	"san francisco": "Pacific Time (UTC-8)",
	"new york":      "Eastern Time (UTC-5)",
	"london":        "Greenwich Mean Time (UTC+0)",
}

// TimeZone describes the time zone of a known city, case-insensitively.
func TimeZone(location string) string {
	if tz, ok := timeZones[strings.ToLower(strings.TrimSpace(location))]; ok {
		return tz
	}
	return "Time zone data not available for " + location
}

// TimeZoneTool is get_time_zone.
func TimeZoneTool() af.Tool {
	return af.NewTypedTool("get_time_zone", "Get the time zone for a location.",
		func(ctx context.Context, a struct {
			Location string `json:"location" jsonschema:"description=The city or location name,required"`
		}) (any, error) {
			return TimeZone(a.Location), nil
		})
}
