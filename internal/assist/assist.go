// Package assist provides the content-generation service: turning a
// free-text instruction into task drafts, a (title, topic) pair into a
// document body, and a task snapshot into a short daily summary.
//
// Two implementations satisfy the Generator contract:
//
//   - Client: remote LLM-backed generation via the Anthropic API
//   - Fallback: deterministic keyword matching against canned templates,
//     for offline/demo use and as the recovery path when the remote
//     service fails
//
// The variant is selected once by configuration at startup; both accept
// the same inputs and produce the same output shapes, so callers never
// need to know which one they hold.
package assist

import (
	"context"
	"time"

	"github.com/crewdeck/crewdeck/internal/types"
)

// Options carries the context for task generation.
type Options struct {
	// AnchorDate is the reference date task day-offsets are computed
	// from. When nil, the generator derives one from the instruction
	// text if possible, falling back to the current time.
	AnchorDate *time.Time

	// DefaultAssignee receives every generated task when the
	// instruction names no roster member. May be empty (unassigned).
	DefaultAssignee string

	// ProjectID is stamped onto every generated draft.
	ProjectID string

	// Roster is the team the generator may assign tasks to by matching
	// names in the instruction.
	Roster []*types.User
}

// Generator produces task drafts, document bodies and summaries.
//
// All methods may fail; callers must have a fallback (either the local
// Fallback generator or a user-visible error). Failures are wrapped in
// *types.GenerationError.
type Generator interface {
	// GenerateTasks breaks one free-text instruction into an ordered
	// list of task drafts. Drafts carry status "To Do", the configured
	// project id, and CreatedByAI set.
	GenerateTasks(ctx context.Context, instruction string, opts Options) ([]*types.Task, error)

	// GenerateDocument produces an HTML document body from a title and
	// a topic or prompt.
	GenerateDocument(ctx context.Context, title, topic string) (string, error)

	// Summarize produces a short focus summary of the given user's
	// tasks (3-4 sentences, overdue items first).
	Summarize(ctx context.Context, userID string, tasks []*types.Task) (string, error)
}
