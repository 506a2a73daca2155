package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/crewdeck/crewdeck/internal/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// Client is the remote LLM-backed generator. All failures are wrapped in
// *types.GenerationError so callers can recover with the Fallback variant.
type Client struct {
	api       anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ Generator = (*Client)(nil)

// NewClient creates a generator backed by the Anthropic API.
// An empty model selects DefaultModel.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: 2048,
	}
}

// complete sends one system+user exchange and returns the concatenated
// text blocks of the response.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	return b.String(), nil
}

// generatedTask is the JSON contract the model is asked to return.
type generatedTask struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DaysOffset  int    `json:"days_offset"`
	AssignedTo  string `json:"assigned_to"`
}

const taskSystemPrompt = `You are an expert project manager. Break the user's request down into actionable project tasks.

Context:
- Current date: %s
- Base due date: %s
- Available team members: %s

Instructions:
1. Analyze the request and break it into logical steps.
2. Give each task a days_offset relative to the base due date (negative = lead time before it).
3. Set assigned_to to a team member id if their name or role is implied, otherwise "".
4. Return ONLY valid JSON in this shape, no prose:
{"tasks": [{"name": "...", "description": "...", "days_offset": 0, "assigned_to": ""}]}`

// GenerateTasks implements Generator.
func (c *Client) GenerateTasks(ctx context.Context, instruction string, opts Options) ([]*types.Task, error) {
	anchor := time.Now()
	if opts.AnchorDate != nil {
		anchor = *opts.AnchorDate
	}

	roster := make([]map[string]string, 0, len(opts.Roster))
	for i, u := range opts.Roster {
		if i >= 10 { // keep the prompt small
			break
		}
		roster = append(roster, map[string]string{"id": u.ID, "name": u.Name})
	}
	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return nil, &types.GenerationError{Op: "tasks", Err: err}
	}

	system := fmt.Sprintf(taskSystemPrompt,
		time.Now().Format("2006-01-02"),
		anchor.Format("2006-01-02"),
		string(rosterJSON))

	raw, err := c.complete(ctx, system, instruction)
	if err != nil {
		return nil, &types.GenerationError{Op: "tasks", Err: err}
	}

	var parsed struct {
		Tasks []generatedTask `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, &types.GenerationError{Op: "tasks", Err: fmt.Errorf("model returned invalid JSON: %w", err)}
	}
	if len(parsed.Tasks) == 0 {
		return nil, &types.GenerationError{Op: "tasks", Err: fmt.Errorf("model returned no tasks")}
	}

	tasks := make([]*types.Task, 0, len(parsed.Tasks))
	for _, gt := range parsed.Tasks {
		due := anchor.AddDate(0, 0, gt.DaysOffset)
		desc := gt.Description
		if desc == "" {
			desc = fmt.Sprintf("AI-generated task based on: %q", instruction)
		}
		assigned := gt.AssignedTo
		if assigned == "" {
			assigned = opts.DefaultAssignee
		}
		tasks = append(tasks, &types.Task{
			Name:        gt.Name,
			Description: desc,
			Status:      types.TaskTodo,
			DueDate:     &due,
			AssignedTo:  assigned,
			ProjectID:   opts.ProjectID,
			CreatedByAI: true,
		})
	}

	return tasks, nil
}

const documentSystemPrompt = `You are a professional technical writer and project manager.
Create a comprehensive document based on the user's title and brief.

Output format: HTML body content only, no html/head tags.
- Use <h2> and <h3> for headings.
- Use <p> for paragraphs.
- Use <ul>/<ol> with <li> for lists.
- Use <strong> for emphasis.
- Make it professional, detailed, and structured.`

// GenerateDocument implements Generator.
func (c *Client) GenerateDocument(ctx context.Context, title, topic string) (string, error) {
	user := fmt.Sprintf("Document title: %s\nBrief/topic: %s\n\nWrite the full content for this document.", title, topic)

	content, err := c.complete(ctx, documentSystemPrompt, user)
	if err != nil {
		return "", &types.GenerationError{Op: "document", Err: err}
	}
	return content, nil
}

const summarySystemPrompt = `You are a helpful and energetic project assistant.
Review the user's tasks and give a brief, motivating summary of what they should focus on today.
Highlight overdue items first, then tasks due today.
Keep it concise (max 3-4 sentences) and friendly.`

// Summarize implements Generator.
func (c *Client) Summarize(ctx context.Context, userID string, tasks []*types.Task) (string, error) {
	type taskBrief struct {
		Name    string     `json:"name"`
		Status  string     `json:"status"`
		DueDate *time.Time `json:"due_date,omitempty"`
	}

	var mine []taskBrief
	for _, t := range tasks {
		if t.AssignedTo == userID {
			mine = append(mine, taskBrief{Name: t.Name, Status: string(t.Status), DueDate: t.DueDate})
		}
	}
	if len(mine) == 0 {
		return noTasksSummary, nil
	}

	data, err := json.Marshal(mine)
	if err != nil {
		return "", &types.GenerationError{Op: "summary", Err: err}
	}

	out, err := c.complete(ctx, summarySystemPrompt, fmt.Sprintf("Here are my tasks: %s", data))
	if err != nil {
		return "", &types.GenerationError{Op: "summary", Err: err}
	}
	return out, nil
}

// stripFences removes a markdown code fence around a JSON payload, which
// models occasionally emit despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
