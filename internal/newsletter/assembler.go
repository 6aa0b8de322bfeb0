// Package newsletter turns a discovery run's selected events into a
// rendered digest and delivers it.
package newsletter

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/citypulse/citypulse/internal/models"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Georgia, serif; color: #1a1a1a; max-width: 640px; margin: 0 auto; padding: 16px; }
  h1 { font-size: 22px; border-bottom: 2px solid #1a1a1a; padding-bottom: 8px; }
  .event { margin: 20px 0; padding-bottom: 16px; border-bottom: 1px solid #ddd; }
  .event h2 { font-size: 17px; margin: 0 0 4px 0; }
  .event h2 a { color: #1a3c8c; text-decoration: none; }
  .meta { font-size: 13px; color: #555; margin-bottom: 6px; }
  .category { display: inline-block; background: #eef; padding: 1px 6px; font-size: 12px; border-radius: 3px; }
  .event img { max-width: 100%; margin-top: 8px; }
  .footer { font-size: 12px; color: #888; margin-top: 24px; }
</style>
</head>
<body>
<h1>{{.Heading}}</h1>
{{range .Events}}
<div class="event">
  <h2><a href="{{.SourceURL}}">{{.Title}}</a></h2>
  <div class="meta">
    {{.Date.Format "Monday, January 2"}}{{if .Time}} &middot; {{.Time}}{{end}} &middot; {{.Location}}
    {{if .Category}}<span class="category">{{.Category}}</span>{{end}}
  </div>
  {{if .Description}}<div>{{.Description}}</div>{{end}}
  {{if .ImageURL}}<img src="{{.ImageURL}}" alt="">{{end}}
</div>
{{end}}
<div class="footer">You are receiving this because you subscribed to a weekly events digest. Manage your preferences any time.</div>
</body>
</html>
`))

type digestData struct {
	Heading string
	Events  []eventView
}

type eventView struct {
	Title       string
	Description string
	Date        time.Time
	Time        string
	Location    string
	Category    string
	SourceURL   string
	ImageURL    string
}

// Assemble renders the digest HTML and subject line for one run's events.
// Events are rendered in the order given, which is the pipeline's rank
// order.
func Assemble(city string, events []models.Event, now time.Time) (subject, html string, err error) {
	if len(events) == 0 {
		return "", "", fmt.Errorf("cannot assemble newsletter with no events")
	}

	subject = fmt.Sprintf("%d events in %s this week", len(events), city)

	data := digestData{
		Heading: fmt.Sprintf("Upcoming in %s: week of %s", city, now.Format("January 2")),
		Events:  make([]eventView, 0, len(events)),
	}
	for _, e := range events {
		data.Events = append(data.Events, eventView{
			Title:       e.Title,
			Description: deref(e.Description),
			Date:        e.Date,
			Time:        deref(e.Time),
			Location:    e.Location,
			Category:    deref(e.Category),
			SourceURL:   e.SourceURL,
			ImageURL:    deref(e.ImageURL),
		})
	}

	var b strings.Builder
	if err := digestTemplate.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("failed to render newsletter: %w", err)
	}
	return subject, b.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
