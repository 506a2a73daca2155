package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crewdeck/crewdeck/internal/config"
	"github.com/crewdeck/crewdeck/internal/remote/sqlite"
	"github.com/crewdeck/crewdeck/internal/session"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/internal/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats [project-id]",
	Short: "Show task statistics per project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		st := store.New(db, db, session.NewFileKV(cfg.SessionFile), nil)
		if err := st.Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer st.Close()

		projects := st.Projects()
		if len(args) == 1 {
			p := st.GetProject(args[0])
			if p == nil {
				return &types.NotFoundError{Kind: "project", ID: args[0]}
			}
			projects = []*types.Project{p}
		}

		if len(projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}

		for _, p := range projects {
			stats := st.GetTaskStats(p.ID)
			progress := st.GetProjectProgress(p.ID)
			fmt.Printf("%s (%s)\n", p.Name, p.Status)
			fmt.Printf("  tasks: %d total, %d to do, %d in progress, %d done\n",
				stats.Total, stats.Todo, stats.InProgress, stats.Done)
			fmt.Printf("  progress: %d%%\n", progress)
		}
		return nil
	},
}
