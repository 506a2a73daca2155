package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/crewdeck/crewdeck/internal/types"
)

// Fallback is the local deterministic generator. It matches the
// instruction against an ordered list of category rules; the first
// category with a keyword present in the lowercased input wins. No
// scoring, no blending. Unmatched input gets a fixed generic template.
//
// Fallback never fails: every call returns usable content.
type Fallback struct {
	parser *when.Parser
}

var _ Generator = (*Fallback)(nil)

// NewFallback creates the local generator.
func NewFallback() *Fallback {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return &Fallback{parser: parser}
}

// taskStep is one templated task with a day offset from the anchor date.
// Negative offsets mean "before the anchor", modelling lead time.
type taskStep struct {
	name   string
	offset int
}

// taskCategory is one keyword-triggered task template.
type taskCategory struct {
	name     string
	keywords []string
	steps    []taskStep
}

// taskCategories is scanned in order; the first match wins, so earlier
// entries take priority over later ones.
var taskCategories = []taskCategory{
	{
		name:     "launch",
		keywords: []string{"launch", "release", "ship", "deploy", "rollout", "go live"},
		steps: []taskStep{
			{"Finalize scope and freeze changes", -3},
			{"Prepare announcement and marketing assets", -2},
			{"Run full QA and regression pass", -1},
			{"Launch: ship and verify in production", 0},
			{"Monitor feedback and triage issues", 1},
		},
	},
	{
		name:     "website",
		keywords: []string{"website", "web site", "landing page", "homepage", "redesign"},
		steps: []taskStep{
			{"Draft sitemap and wireframes", -4},
			{"Design page layouts and visual style", -2},
			{"Implement pages and responsive styles", -1},
			{"Review content and publish", 0},
		},
	},
	{
		name:     "marketing",
		keywords: []string{"marketing", "campaign", "social media", "newsletter", "ads", "promotion"},
		steps: []taskStep{
			{"Define campaign goals and audience", -3},
			{"Write copy and produce creatives", -2},
			{"Schedule posts and set up tracking", -1},
			{"Go live with the campaign", 0},
			{"Report on campaign performance", 3},
		},
	},
	{
		name:     "event",
		keywords: []string{"event", "conference", "workshop", "webinar", "offsite"},
		steps: []taskStep{
			{"Book venue and confirm date", -7},
			{"Invite attendees and collect RSVPs", -5},
			{"Prepare materials and agenda", -2},
			{"Run the event", 0},
			{"Send follow-ups and gather feedback", 1},
		},
	},
	{
		name:     "research",
		keywords: []string{"research", "investigate", "explore", "evaluate", "analysis"},
		steps: []taskStep{
			{"Collect sources and prior work", -2},
			{"Review findings and take notes", -1},
			{"Synthesize conclusions", 0},
			{"Present recommendations", 1},
		},
	},
	{
		name:     "hiring",
		keywords: []string{"hire", "hiring", "recruit", "interview", "candidate", "onboard"},
		steps: []taskStep{
			{"Write role description and post opening", -5},
			{"Screen applications", -3},
			{"Run interview loop", -1},
			{"Make decision and extend offer", 0},
			{"Prepare onboarding plan", 2},
		},
	},
}

// genericSteps is the fixed fallback when no category matches. Each name
// is parameterized by a truncated echo of the instruction.
var genericSteps = []taskStep{
	{"Research", -2},
	{"Plan", -1},
	{"Execute", 0},
	{"Review", 1},
}

// maxEchoLen is the hard cut applied to the echoed instruction in generic
// task names. The cut is by character count, not word boundaries.
const maxEchoLen = 40

// truncate hard-cuts s at maxEchoLen characters, appending an ellipsis
// marker when anything was removed.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxEchoLen {
		return s
	}
	return string(r[:maxEchoLen]) + "..."
}

// GenerateTasks implements Generator.
func (f *Fallback) GenerateTasks(_ context.Context, instruction string, opts Options) ([]*types.Task, error) {
	anchor := f.anchorDate(instruction, opts)
	lower := strings.ToLower(instruction)

	steps := genericStepsFor(instruction)
	for _, cat := range taskCategories {
		if matchesAny(lower, cat.keywords) {
			steps = cat.steps
			break
		}
	}

	assignees := matchRoster(lower, opts.Roster)

	tasks := make([]*types.Task, 0, len(steps))
	for i, step := range steps {
		due := anchor.AddDate(0, 0, step.offset)

		assigned := opts.DefaultAssignee
		if len(assignees) > 0 {
			assigned = assignees[i%len(assignees)]
		}

		tasks = append(tasks, &types.Task{
			Name:        step.name,
			Description: fmt.Sprintf("AI-generated task based on: %q", instruction),
			Status:      types.TaskTodo,
			DueDate:     &due,
			AssignedTo:  assigned,
			ProjectID:   opts.ProjectID,
			CreatedByAI: true,
		})
	}

	return tasks, nil
}

// genericStepsFor builds the 4-step generic template parameterized by a
// truncated echo of the instruction.
func genericStepsFor(instruction string) []taskStep {
	echo := truncate(instruction)
	steps := make([]taskStep, len(genericSteps))
	for i, s := range genericSteps {
		steps[i] = taskStep{
			name:   fmt.Sprintf("%s: %s", s.name, echo),
			offset: s.offset,
		}
	}
	return steps
}

// matchesAny reports whether any keyword occurs in the lowercased input.
func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// matchRoster returns the ids of roster members whose full name or first
// name appears in the lowercased instruction, in roster order. Matched
// members are cycled round-robin across the generated tasks.
func matchRoster(lower string, roster []*types.User) []string {
	var matched []string
	for _, u := range roster {
		if u.Name == "" {
			continue
		}
		full := strings.ToLower(u.Name)
		first := strings.Fields(full)[0]
		if strings.Contains(lower, full) || strings.Contains(lower, first) {
			matched = append(matched, u.ID)
		}
	}
	return matched
}

// anchorDate resolves the reference date for offsets: the caller-supplied
// due date wins; otherwise a date phrase in the instruction ("by Friday",
// "next week") is parsed; otherwise now.
func (f *Fallback) anchorDate(instruction string, opts Options) time.Time {
	if opts.AnchorDate != nil {
		return *opts.AnchorDate
	}
	if r, err := f.parser.Parse(instruction, time.Now()); err == nil && r != nil {
		return r.Time
	}
	return time.Now()
}
