package assist

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// docCategory is one keyword-triggered document skeleton. Sections are
// rendered in order with the supplied title and topic interpolated.
type docCategory struct {
	name     string
	keywords []string
	sections []string
}

// docCategories is scanned in order; the first match wins.
var docCategories = []docCategory{
	{
		name:     "brief",
		keywords: []string{"brief", "overview", "background", "one-pager"},
		sections: []string{"Background", "Objective", "Key Points", "Next Steps"},
	},
	{
		name:     "proposal",
		keywords: []string{"proposal", "pitch", "propose", "budget"},
		sections: []string{"Problem Statement", "Proposed Solution", "Scope", "Budget & Resources", "Timeline", "Risks"},
	},
	{
		name:     "technical",
		keywords: []string{"technical", "architecture", "spec", "design doc", "api", "implementation"},
		sections: []string{"Summary", "Goals & Non-Goals", "Architecture", "API Surface", "Alternatives Considered", "Rollout"},
	},
	{
		name:     "plan",
		keywords: []string{"plan", "roadmap", "timeline", "milestone", "schedule"},
		sections: []string{"Objectives", "Milestones", "Timeline", "Dependencies", "Success Criteria"},
	},
	{
		name:     "meeting",
		keywords: []string{"meeting", "agenda", "minutes", "standup", "retro"},
		sections: []string{"Attendees", "Agenda", "Discussion", "Decisions", "Action Items"},
	},
}

// genericDocSections is the fixed skeleton for unmatched input.
var genericDocSections = []string{
	"Introduction", "Overview", "Details", "Considerations", "Conclusion", "References",
}

// GenerateDocument implements Generator. The body is HTML, the same
// serialization the document editor stores.
func (f *Fallback) GenerateDocument(_ context.Context, title, topic string) (string, error) {
	lower := strings.ToLower(title + " " + topic)

	sections := genericDocSections
	for _, cat := range docCategories {
		if matchesAny(lower, cat.keywords) {
			sections = cat.sections
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<p><em>%s</em></p>\n", html.EscapeString(topic))
	for _, section := range sections {
		fmt.Fprintf(&b, "<h3>%s</h3>\n", html.EscapeString(section))
		fmt.Fprintf(&b, "<p>%s for %s.</p>\n",
			html.EscapeString(section), html.EscapeString(title))
	}

	return b.String(), nil
}
