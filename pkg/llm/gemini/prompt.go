package gemini

import (
	"fmt"
	"strings"

	"razglasgo/pkg/llm"
)

// buildPrompt turns the structured request into a generation prompt. The model
// must answer with the same JSON shape the HTTP provider uses, so text
// resolution treats both providers identically.
func buildPrompt(req *llm.Request) string {
	var sb strings.Builder

	sb.WriteString("You write short, calm airport public announcements, spoken over a PA system.\n")
	sb.WriteString("Respond ONLY with JSON: {\"text\": string, \"tone\": string, \"priority\": number, \"shouldAnnounce\": boolean, \"estimatedDuration\": number}.\n")
	sb.WriteString("Set shouldAnnounce to false if the situation is better handled by staff in person.\n\n")

	f := req.Flight
	fmt.Fprintf(&sb, "Announcement type: %s\n", req.Kind)
	fmt.Fprintf(&sb, "Flight: %s %s (%s), %s %s\n", f.AirlineName, f.Ident, f.AirlineIATA, f.Movement, f.CityName)
	fmt.Fprintf(&sb, "Scheduled: %s", f.ScheduledTime)
	if f.EstimatedTime != "" {
		fmt.Fprintf(&sb, ", estimated: %s", f.EstimatedTime)
	}
	sb.WriteString("\n")
	if f.Gate != "" {
		fmt.Fprintf(&sb, "Gate: %s\n", f.Gate)
	}
	if req.DelayMinutes > 0 {
		fmt.Fprintf(&sb, "Delay: %d minutes\n", req.DelayMinutes)
	}
	fmt.Fprintf(&sb, "Time of day: %s, peak hours: %v, situation sentiment: %.1f\n", req.TimeOfDay, req.PeakHour, req.Sentiment)

	sb.WriteString("\nKeep it under 40 words. No airline jargon. Address passengers directly.")
	return sb.String()
}
