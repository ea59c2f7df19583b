// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jochenvw/agent-framework-samples/mcp"
)

type report struct {
	city      string
	condition string
	celsius   int
	humidity  int
	windKPH   int
	timeZone  string
	forecast  string
}

var reports = []report{
	{"Seattle", "cloudy with light rain", 12, 82, 14, "America/Los_Angeles", "Showers clearing by the afternoon."},
	{"New York", "sunny", 18, 55, 11, "America/New_York", "Clear skies all day."},
	{"London", "overcast", 14, 76, 18, "Europe/London", "Chance of drizzle in the evening."},
	{"Berlin", "clear", 16, 60, 9, "Europe/Berlin", "Sunny spells with a light breeze."},
	{"Tokyo", "humid and partly cloudy", 24, 70, 12, "Asia/Tokyo", "Warm with scattered clouds."},
	{"Sydney", "sunny", 22, 58, 20, "Australia/Sydney", "Windy along the coast."},
}

func lookup(city string) (report, bool) {
	for _, r := range reports {
		if strings.EqualFold(r.city, strings.TrimSpace(city)) {
			return r, true
		}
	}
	return report{}, false
}

func supportedCities() []string {
	cities := make([]string, len(reports))
	for i, r := range reports {
		cities[i] = r.city
	}
	return cities
}

// weatherAt describes the weather in city. Unsupported cities are an error
// that lists the supported ones.
func weatherAt(city string) (string, error) {
	r, ok := lookup(city)
	if !ok {
		return "", fmt.Errorf("weather data for %q is not available; supported locations: %s",
			city, strings.Join(supportedCities(), ", "))
	}
	return fmt.Sprintf("The weather in %s is %s, %d°C, humidity %d%%, wind %d km/h. Time zone: %s. Forecast: %s",
		r.city, r.condition, r.celsius, r.humidity, r.windKPH, r.timeZone, r.forecast), nil
}

// currentTime formats now in the IANA zone.
func currentTime(zone string, now time.Time) (string, error) {
	if zone == "" {
		return "", errors.New("a time zone is required, use an IANA name such as Europe/Berlin")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "Local" {
		return "", fmt.Errorf("unknown time zone %q, use an IANA name such as Europe/Berlin", zone)
	}
	return fmt.Sprintf("The current time in %s is %s.", zone, now.In(loc).Format("Monday, January 2, 2006 03:04 PM MST")), nil
}

type cityArgs struct {
	CityName string `json:"city_name" jsonschema:"the city to get the weather for"`
}

type zoneArgs struct {
	LocationTimezone string `json:"location_timezone" jsonschema:"IANA time zone name such as Europe/London"`
}

func newServer(now func() time.Time) *mcp.Server {
	s := mcp.NewServer("Weather", "1.0.0")
	mcp.AddTool(s, "get_weather_at_location", "Get the current weather for a supported city.",
		func(ctx context.Context, in cityArgs) (string, error) { return weatherAt(in.CityName) })
	mcp.AddTool(s, "list_supported_locations", "List the cities weather data is available for.",
		func(ctx context.Context, _ struct{}) (string, error) {
			return "Supported locations: " + strings.Join(supportedCities(), ", "), nil
		})
	mcp.AddTool(s, "get_current_time", "Get the current time in an IANA time zone.",
		func(ctx context.Context, in zoneArgs) (string, error) { return currentTime(in.LocationTimezone, now()) })
	return s
}
