package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crewdeck/crewdeck/internal/config"
	"github.com/crewdeck/crewdeck/internal/remote/sqlite"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/internal/types"
)

var seedRosterFile string

// seedRoster is the YAML shape accepted by --roster.
type seedRoster struct {
	Users []struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
		Role  string `yaml:"role"`
	} `yaml:"users"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with an initial user roster",
	Long: `Seed the user table so the app has accounts to log in with.

Without --roster the built-in sample roster is inserted. With --roster
a YAML file is read instead:

  users:
    - name: Alex Johnson
      email: alex@example.com
      role: admin`,
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

		if err := db.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		users := store.SampleUsers
		if seedRosterFile != "" {
			users, err = loadRoster(seedRosterFile)
			if err != nil {
				return err
			}
		}

		existing, err := db.ListUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("database already has %d user(s); refusing to seed", len(existing))
		}

		inserted, err := db.InsertUsers(cmd.Context(), users)
		if err != nil {
			return fmt.Errorf("failed to insert users: %w", err)
		}

		for _, u := range inserted {
			fmt.Printf("  %s  %-20s %s\n", u.Avatar, u.Name, u.Email)
		}
		fmt.Printf("Seeded %d user(s) into %s\n", len(inserted), cfg.DBPath)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedRosterFile, "roster", "", "YAML roster file (default: built-in sample users)")
}

func loadRoster(path string) ([]*types.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var roster seedRoster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(roster.Users) == 0 {
		return nil, fmt.Errorf("roster %s has no users", path)
	}

	users := make([]*types.User, 0, len(roster.Users))
	for i, entry := range roster.Users {
		if entry.Name == "" || entry.Email == "" {
			return nil, fmt.Errorf("roster user %d is missing a name or email", i+1)
		}
		role := types.RoleMember
		if entry.Role == string(types.RoleAdmin) {
			role = types.RoleAdmin
		}
		users = append(users, &types.User{
			Name:   entry.Name,
			Email:  entry.Email,
			Avatar: types.AvatarFor(entry.Name),
			Role:   role,
		})
	}
	return users, nil
}
