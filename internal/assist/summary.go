package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/internal/types"
)

// noTasksSummary is returned when the user has nothing assigned.
const noTasksSummary = "You have no tasks assigned in this project. Ask the project manager for work!"

// Summarize implements Generator. The summary is computed locally from the
// snapshot: overdue items first, then items due today, then a progress
// nudge.
func (f *Fallback) Summarize(_ context.Context, userID string, tasks []*types.Task) (string, error) {
	var mine []*types.Task
	for _, t := range tasks {
		if t.AssignedTo == userID {
			mine = append(mine, t)
		}
	}
	if len(mine) == 0 {
		return noTasksSummary, nil
	}

	now := time.Now()
	today := now.Truncate(24 * time.Hour)

	var overdue, dueToday, inProgress, open int
	for _, t := range mine {
		if t.Status == types.TaskDone {
			continue
		}
		open++
		if t.Status == types.TaskInProgress {
			inProgress++
		}
		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.Truncate(24 * time.Hour)
		switch {
		case due.Before(today):
			overdue++
		case due.Equal(today):
			dueToday++
		}
	}

	if open == 0 {
		return fmt.Sprintf("All %d of your tasks are done. Great work - grab something new from the backlog!", len(mine)), nil
	}

	var b strings.Builder
	if overdue > 0 {
		fmt.Fprintf(&b, "You have %d overdue %s - tackle those first. ", overdue, plural(overdue, "task"))
	}
	if dueToday > 0 {
		fmt.Fprintf(&b, "%d %s due today. ", dueToday, plural(dueToday, "task is", "tasks are"))
	}
	if inProgress > 0 {
		fmt.Fprintf(&b, "You already have %d in progress - try to finish those before starting new work. ", inProgress)
	}
	fmt.Fprintf(&b, "%d open %s in total. You've got this!", open, plural(open, "task"))

	return b.String(), nil
}

// plural returns the singular form for n == 1 and the plural otherwise.
// With one extra argument the plural is the singular + "s".
func plural(n int, forms ...string) string {
	if n == 1 {
		return forms[0]
	}
	if len(forms) > 1 {
		return forms[1]
	}
	return forms[0] + "s"
}
