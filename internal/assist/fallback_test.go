package assist

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/crewdeck/crewdeck/internal/types"
)

func anchorOpts(projectID string) Options {
	anchor := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return Options{AnchorDate: &anchor, ProjectID: projectID}
}

func TestGenerateTasksLaunchCategory(t *testing.T) {
	f := NewFallback()
	opts := anchorOpts("proj-1")

	tasks, err := f.GenerateTasks(context.Background(), "We need to launch the new feature by Friday", opts)
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("GenerateTasks() returned %d tasks, want 5", len(tasks))
	}

	wantOffsets := []int{-3, -2, -1, 0, 1}
	for i, task := range tasks {
		if task.DueDate == nil {
			t.Fatalf("task %d has no due date", i)
		}
		got := int(task.DueDate.Sub(*opts.AnchorDate).Hours() / 24)
		if got != wantOffsets[i] {
			t.Errorf("task %d offset = %d, want %d", i, got, wantOffsets[i])
		}
		if task.Status != types.TaskTodo {
			t.Errorf("task %d status = %q, want %q", i, task.Status, types.TaskTodo)
		}
		if !task.CreatedByAI {
			t.Errorf("task %d CreatedByAI = false, want true", i)
		}
		if task.ProjectID != "proj-1" {
			t.Errorf("task %d ProjectID = %q, want proj-1", i, task.ProjectID)
		}
	}

	if tasks[3].Name != "Launch: ship and verify in production" {
		t.Errorf("anchor task name = %q", tasks[3].Name)
	}
}

func TestGenerateTasksCategoryKeywords(t *testing.T) {
	f := NewFallback()

	tests := []struct {
		name        string
		instruction string
		wantCount   int
		wantFirst   string
	}{
		{
			name:        "launch synonym",
			instruction: "deploy v2 next week",
			wantCount:   5,
			wantFirst:   "Finalize scope and freeze changes",
		},
		{
			name:        "website",
			instruction: "Redesign the marketing homepage",
			wantCount:   4,
			wantFirst:   "Draft sitemap and wireframes",
		},
		{
			name:        "event",
			instruction: "Organize the annual conference",
			wantCount:   5,
			wantFirst:   "Book venue and confirm date",
		},
		{
			name:        "hiring",
			instruction: "Interview candidates for the backend role",
			wantCount:   5,
			wantFirst:   "Write role description and post opening",
		},
		{
			name:        "first category wins over later ones",
			instruction: "Research options before we launch",
			wantCount:   5,
			wantFirst:   "Finalize scope and freeze changes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.GenerateTasks(context.Background(), tt.instruction, anchorOpts("p"))
			if err != nil {
				t.Fatalf("GenerateTasks() error = %v", err)
			}
			if len(tasks) != tt.wantCount {
				t.Fatalf("got %d tasks, want %d", len(tasks), tt.wantCount)
			}
			if tasks[0].Name != tt.wantFirst {
				t.Errorf("first task = %q, want %q", tasks[0].Name, tt.wantFirst)
			}
		})
	}
}

func TestGenerateTasksGenericTemplate(t *testing.T) {
	f := NewFallback()
	opts := anchorOpts("p")

	instruction := "Sort out the supply closet"
	tasks, err := f.GenerateTasks(context.Background(), instruction, opts)
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("got %d tasks, want 4", len(tasks))
	}

	wantNames := []string{
		"Research: Sort out the supply closet",
		"Plan: Sort out the supply closet",
		"Execute: Sort out the supply closet",
		"Review: Sort out the supply closet",
	}
	wantOffsets := []int{-2, -1, 0, 1}
	for i, task := range tasks {
		if task.Name != wantNames[i] {
			t.Errorf("task %d name = %q, want %q", i, task.Name, wantNames[i])
		}
		got := int(task.DueDate.Sub(*opts.AnchorDate).Hours() / 24)
		if got != wantOffsets[i] {
			t.Errorf("task %d offset = %d, want %d", i, got, wantOffsets[i])
		}
	}
}

func TestGenerateTasksEchoTruncation(t *testing.T) {
	f := NewFallback()

	instruction := "Coordinate the cross team quarterly planning session for everyone"
	tasks, err := f.GenerateTasks(context.Background(), instruction, anchorOpts("p"))
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}

	want := "Research: " + instruction[:40] + "..."
	if tasks[0].Name != want {
		t.Errorf("truncated name = %q, want %q", tasks[0].Name, want)
	}
}

func TestGenerateTasksRosterMatching(t *testing.T) {
	roster := []*types.User{
		{ID: "u1", Name: "Alex Johnson"},
		{ID: "u2", Name: "Maria Garcia"},
		{ID: "u3", Name: "Juan Rodriguez"},
	}

	tests := []struct {
		name          string
		instruction   string
		defaultUser   string
		wantAssignees []string
	}{
		{
			name:          "single first name match",
			instruction:   "launch the feature, maria leads",
			wantAssignees: []string{"u2", "u2", "u2", "u2", "u2"},
		},
		{
			name:          "two matches round robin",
			instruction:   "launch with maria and juan",
			wantAssignees: []string{"u2", "u3", "u2", "u3", "u2"},
		},
		{
			name:          "full name match",
			instruction:   "launch led by alex johnson",
			wantAssignees: []string{"u1", "u1", "u1", "u1", "u1"},
		},
		{
			name:          "no match falls back to default",
			instruction:   "launch the thing",
			defaultUser:   "u9",
			wantAssignees: []string{"u9", "u9", "u9", "u9", "u9"},
		},
		{
			name:          "no match and no default leaves unassigned",
			instruction:   "launch the thing",
			wantAssignees: []string{"", "", "", "", ""},
		},
	}

	f := NewFallback()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := anchorOpts("p")
			opts.Roster = roster
			opts.DefaultAssignee = tt.defaultUser

			tasks, err := f.GenerateTasks(context.Background(), tt.instruction, opts)
			if err != nil {
				t.Fatalf("GenerateTasks() error = %v", err)
			}
			if len(tasks) != len(tt.wantAssignees) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.wantAssignees))
			}
			for i, task := range tasks {
				if task.AssignedTo != tt.wantAssignees[i] {
					t.Errorf("task %d assignee = %q, want %q", i, task.AssignedTo, tt.wantAssignees[i])
				}
			}
		})
	}
}

func TestGenerateTasksAnchorFromInstruction(t *testing.T) {
	f := NewFallback()

	// No caller anchor: a date phrase in the instruction should move the
	// anchor task away from today.
	tasks, err := f.GenerateTasks(context.Background(), "launch the feature in 10 days", Options{ProjectID: "p"})
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}

	anchorTask := tasks[3] // offset 0
	if anchorTask.DueDate == nil {
		t.Fatal("anchor task has no due date")
	}
	days := time.Until(*anchorTask.DueDate).Hours() / 24
	if days < 8 || days > 11 {
		t.Errorf("anchor task due in %.1f days, want roughly 10", days)
	}
}

func TestGenerateDocumentCategories(t *testing.T) {
	f := NewFallback()

	tests := []struct {
		name        string
		title       string
		topic       string
		wantSection string
	}{
		{"technical", "API Design", "architecture for the sync layer", "<h3>Goals &amp; Non-Goals</h3>"},
		{"proposal", "Q3 Proposal", "budget ask", "<h3>Problem Statement</h3>"},
		{"meeting", "Sprint Retro", "what went well", "<h3>Action Items</h3>"},
		{"generic skeleton", "Notes", "assorted thoughts", "<h3>Considerations</h3>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.GenerateDocument(context.Background(), tt.title, tt.topic)
			if err != nil {
				t.Fatalf("GenerateDocument() error = %v", err)
			}
			if !strings.Contains(got, tt.wantSection) {
				t.Errorf("document missing section %q:\n%s", tt.wantSection, got)
			}
			if !strings.Contains(got, "<h2>"+tt.title+"</h2>") {
				t.Errorf("document missing title heading")
			}
		})
	}
}

func TestGenerateDocumentEscapesHTML(t *testing.T) {
	f := NewFallback()

	got, err := f.GenerateDocument(context.Background(), "Notes <script>", "a & b")
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(got, "a &amp; b") {
		t.Error("topic was not escaped")
	}
}

func TestSummarize(t *testing.T) {
	f := NewFallback()
	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)

	tests := []struct {
		name  string
		tasks []*types.Task
		want  []string
	}{
		{
			name:  "no assigned tasks",
			tasks: []*types.Task{{AssignedTo: "other", Status: types.TaskTodo}},
			want:  []string{noTasksSummary},
		},
		{
			name: "all done",
			tasks: []*types.Task{
				{AssignedTo: "me", Status: types.TaskDone},
				{AssignedTo: "me", Status: types.TaskDone},
			},
			want: []string{"All 2 of your tasks are done"},
		},
		{
			name: "overdue first",
			tasks: []*types.Task{
				{AssignedTo: "me", Status: types.TaskTodo, DueDate: &yesterday},
				{AssignedTo: "me", Status: types.TaskInProgress, DueDate: &tomorrow},
			},
			want: []string{"1 overdue task", "1 in progress", "2 open tasks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Summarize(context.Background(), "me", tt.tasks)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("summary %q missing %q", got, want)
				}
			}
		})
	}
}
