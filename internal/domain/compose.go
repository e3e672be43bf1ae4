package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// footer is the fixed usage block appended to every outbound message.
var footer = []string{
	"------------------------------",
	"Manage your subscriptions",
	"------------------------------",
	"",
	"Send an email to:",
	"weather@inbound.geistdevelopment.com",
	"",
	"One command per line in the body:",
	"ADD Charlotte, NC",
	"REMOVE Raleigh, NC",
	"LIST",
	"",
	"------------------------------",
	"",
	"— Wetter Bericht ☀️",
	"",
	"This is an automated email. Do not reply.",
}

// ComposeReply renders a command batch result into the reply email body.
//
// Sections appear in fixed order: greeting, added, removed, listed locations
// with their forecast, errors, usage footer; empty sections are omitted. The
// forecast for listed locations is built on demand via the provider. When the
// batch produced nothing actionable and LIST was not requested, ok is false
// and no reply should be sent at all. A LIST with zero subscriptions still
// produces a reply.
func ComposeReply(ctx context.Context, result CommandResult, provider ForecastProvider, logger *slog.Logger) (body string, ok bool) {
	if result.Empty() {
		return "", false
	}

	lines := []string{"Hello!", ""}

	if len(result.Added) > 0 {
		lines = append(lines, "Added:")
		for _, ref := range result.Added {
			lines = append(lines, fmt.Sprintf("- %s, %s", ref.City, ref.State))
		}
		lines = append(lines, "")
	}

	if len(result.Removed) > 0 {
		lines = append(lines, "Removed:")
		for _, ref := range result.Removed {
			lines = append(lines, fmt.Sprintf("- %s, %s", ref.City, ref.State))
		}
		lines = append(lines, "")
	}

	if result.Listed != nil {
		lines = append(lines, "Your subscribed locations:")
		payload := BuildForecastPayload(ctx, result.Listed, provider, logger)
		lines = append(lines, renderForecastPayload(payload)...)
	}

	if len(result.Errors) > 0 {
		lines = append(lines, "Errors:")
		for _, e := range result.Errors {
			if e.Command == "" {
				lines = append(lines, fmt.Sprintf("- %s", e.Message))
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s \"%s\": %s", e.Command, e.Payload, e.Message))
		}
		lines = append(lines, "")
	}

	lines = append(lines, footer...)
	return strings.Join(lines, "\n"), true
}

// ComposeDigest renders the scheduled multi-day digest email body for one
// subscriber's forecast payload.
func ComposeDigest(payload []CityForecast) string {
	today := clock.Now().Format("Monday, January 02, 2006")

	lines := []string{
		"Good morning!",
		fmt.Sprintf("Today is %s", today),
		"",
		"🌤 Here is your daily detailed forecast:",
		"",
	}
	lines = append(lines, renderForecastPayload(payload)...)
	lines = append(lines, footer...)

	return strings.Join(lines, "\n")
}

// renderForecastPayload renders per-city forecast sections, with an
// "(Weather unavailable)" line for cities whose forecast could not be built
// and a placeholder when no locations are configured.
func renderForecastPayload(payload []CityForecast) []string {
	if len(payload) == 0 {
		return []string{"- (No locations configured)", ""}
	}

	var lines []string
	for _, city := range payload {
		lines = append(lines, fmt.Sprintf("- %s, %s", city.City, city.State))
		if city.Failed || len(city.Forecast) == 0 {
			lines = append(lines, "  (Weather unavailable)", "")
			continue
		}
		for _, day := range city.Forecast {
			lines = append(lines, fmt.Sprintf("  %s %.1f°F / %.1f°F (%s)", day.Label, day.High, day.Low, day.Description))
		}
		lines = append(lines, "")
	}

	return lines
}
