package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crewdeck/crewdeck/internal/assist"
	"github.com/crewdeck/crewdeck/internal/config"
	"github.com/crewdeck/crewdeck/internal/remote/sqlite"
	"github.com/crewdeck/crewdeck/internal/session"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/internal/types"
)

var assistDryRun bool

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Generate tasks, documents and summaries from natural language",
	Long: `Generate project content from free-text instructions.

The generator is chosen by assist.provider in the config: "local" uses
the deterministic keyword matcher, "anthropic" uses the Anthropic API
and falls back to the local matcher when the remote call fails.`,
}

var assistTasksCmd = &cobra.Command{
	Use:   "tasks <project-id> <instruction>",
	Short: "Break an instruction into task drafts and save them",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID := args[0]
		instruction := strings.Join(args[1:], " ")

		st, gen, cleanup, err := openAssist(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		project := st.GetProject(projectID)
		if project == nil {
			return &types.NotFoundError{Kind: "project", ID: projectID}
		}

		opts := assist.Options{
			ProjectID: project.ID,
			Roster:    rosterFor(st, project),
		}
		if u := st.CurrentUser(); u != nil {
			opts.DefaultAssignee = u.ID
		}

		drafts, err := gen.GenerateTasks(cmd.Context(), instruction, opts)
		if err != nil {
			return fmt.Errorf("failed to generate tasks: %w", err)
		}

		if assistDryRun {
			printTasks(st, drafts)
			return nil
		}

		created, err := st.CreateTasks(cmd.Context(), drafts)
		if err != nil {
			return fmt.Errorf("failed to save tasks: %w", err)
		}
		printTasks(st, created)
		fmt.Printf("Created %d task(s) in %s\n", len(created), project.Name)
		return nil
	},
}

var assistDocCmd = &cobra.Command{
	Use:   "doc <project-id> <title> [topic]",
	Short: "Draft a document and save it to a project",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, title := args[0], args[1]
		topic := title
		if len(args) == 3 {
			topic = args[2]
		}

		st, gen, cleanup, err := openAssist(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		project := st.GetProject(projectID)
		if project == nil {
			return &types.NotFoundError{Kind: "project", ID: projectID}
		}

		content, err := gen.GenerateDocument(cmd.Context(), title, topic)
		if err != nil {
			return fmt.Errorf("failed to generate document: %w", err)
		}

		if assistDryRun {
			fmt.Println(content)
			return nil
		}

		draft := &types.Document{
			Title:     title,
			Content:   content,
			ProjectID: project.ID,
		}
		if u := st.CurrentUser(); u != nil {
			draft.AuthorID = u.ID
		}
		doc, err := st.CreateDocument(cmd.Context(), draft)
		if err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		fmt.Printf("Created document %q (%s) in %s\n", doc.Title, doc.ID, project.Name)
		return nil
	},
}

var assistSummaryCmd = &cobra.Command{
	Use:   "summary <project-id> <user-id>",
	Short: "Summarize a user's tasks in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, userID := args[0], args[1]

		st, gen, cleanup, err := openAssist(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if st.GetProject(projectID) == nil {
			return &types.NotFoundError{Kind: "project", ID: projectID}
		}

		summary, err := gen.Summarize(cmd.Context(), userID, st.GetProjectTasks(projectID))
		if err != nil {
			return fmt.Errorf("failed to summarize tasks: %w", err)
		}
		fmt.Println(summary)
		return nil
	},
}

func init() {
	assistCmd.PersistentFlags().BoolVar(&assistDryRun, "dry-run", false, "print the generated content without saving it")
	assistCmd.AddCommand(assistTasksCmd)
	assistCmd.AddCommand(assistDocCmd)
	assistCmd.AddCommand(assistSummaryCmd)
}

// openAssist loads config, opens the store, and builds the configured
// generator. The returned cleanup closes the store and database.
func openAssist(ctx context.Context) (*store.Store, assist.Generator, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := store.New(db, db, session.NewFileKV(cfg.SessionFile), nil)
	if err := st.Init(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	var gen assist.Generator = assist.NewFallback()
	if cfg.Assist.Provider == "anthropic" {
		gen = assist.NewRecovering(
			assist.NewClient(cfg.Assist.APIKey, cfg.Assist.Model),
			assist.NewFallback(),
		)
	}

	cleanup := func() {
		st.Close()
		db.Close()
	}
	return st, gen, cleanup, nil
}

// rosterFor resolves a project's member ids to users, preserving the
// member ordering.
func rosterFor(st *store.Store, p *types.Project) []*types.User {
	roster := make([]*types.User, 0, len(p.Members))
	for _, id := range p.Members {
		if u := st.GetUser(id); u != nil {
			roster = append(roster, u)
		}
	}
	return roster
}

func printTasks(st *store.Store, tasks []*types.Task) {
	for _, t := range tasks {
		due := "no due date"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		assignee := "unassigned"
		if t.AssignedTo != "" {
			assignee = t.AssignedTo
			if u := st.GetUser(t.AssignedTo); u != nil {
				assignee = u.Name
			}
		}
		fmt.Printf("  - %s (%s, %s)\n", t.Name, due, assignee)
	}
}
