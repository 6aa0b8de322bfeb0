package discovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/citypulse/citypulse/internal/models"
)

const systemPrompt = `You are an event discovery assistant. You find real, upcoming local events and report them as structured data. Respond only with a JSON object of the form {"events": [...]}. Each event has the fields: title, description, date (YYYY-MM-DD), time, location, category, sourceUrl, imageUrl, organizer, artist, venue, score (0-100 relevance). Omit fields you do not know rather than inventing values. Never fabricate events.`

func buildCityPrompt(city, profile string, sources []models.EventSource, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Find up to 20 upcoming events in %s.\n\n", city)
	fmt.Fprintf(&b, "Today's date is %s. Only include events from the next 30 days. Prioritize events happening in the next two weeks.\n\n", now.Format("2006-01-02"))

	if profile != "" {
		b.WriteString("Reader profile:\n")
		b.WriteString(profile)
		b.WriteString("\n\n")
	}

	if len(sources) > 0 {
		b.WriteString("The following sites are searched separately, so skip events that come from them:\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "- %s\n", s.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with a JSON object: {"events": [...]}.`)
	return b.String()
}

func buildSourcePrompt(source models.EventSource, profile string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Find upcoming events listed on %s", source.URL)
	if source.Name != nil && *source.Name != "" {
		fmt.Fprintf(&b, " (%s)", *source.Name)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Today's date is %s. Only include events from the next 30 days.\n\n", now.Format("2006-01-02"))

	if profile != "" {
		b.WriteString("Reader profile:\n")
		b.WriteString(profile)
		b.WriteString("\n\n")
	}

	b.WriteString(`Respond with a JSON object: {"events": [...]}.`)
	return b.String()
}

const profileSystemPrompt = `You write short interest profiles for a local events newsletter. Given a reader's stated preferences, produce two or three plain paragraphs describing what kinds of events they want to hear about and what they want to avoid. Write in the third person. Respond with the profile text only, no JSON and no headings.`

func buildProfilePrompt(city, preferences string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The reader lives in %s.\n\n", city)
	b.WriteString("Stated preferences:\n")
	b.WriteString(preferences)
	b.WriteString("\n\nWrite their interest profile.")
	return b.String()
}
