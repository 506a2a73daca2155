package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/crewdeck/crewdeck/internal/config"
	"github.com/crewdeck/crewdeck/internal/dashboard"
	"github.com/crewdeck/crewdeck/internal/remote/sqlite"
	"github.com/crewdeck/crewdeck/internal/session"
	"github.com/crewdeck/crewdeck/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the data-sync backend and dashboard server",
	Long: `Run the crewdeck backend:

  1. Opens the SQLite database and initializes the schema
  2. Loads the in-memory store and subscribes it to the change feed
  3. Starts the dashboard WebSocket server for UI clients
  4. Watches the session file for writes by other processes

Shuts down cleanly on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger := log.New(os.Stderr, "[crewdeck] ", log.LstdFlags)
		if cfg.LogFile != "" {
			logger.SetOutput(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    20, // megabytes
				MaxBackups: 5,
				MaxAge:     30, // days
			})
		}

		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		kv := session.NewFileKV(cfg.SessionFile)

		st := store.New(db, db, kv, &store.Config{Logger: logger})
		if err := st.Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer st.Close()

		// Follow session writes made by a second crewdeck process.
		watcher, err := session.NewWatcher(kv.Path())
		if err != nil {
			return fmt.Errorf("failed to create session watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			logger.Printf("Session watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
			go func() {
				for range watcher.Changes() {
					st.ReloadSession()
				}
			}()
		}

		server := dashboard.NewServer(&dashboard.Config{Port: cfg.Port, Logger: logger})
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard server: %w", err)
		}

		handler := dashboard.NewHandler(server, st, logger)
		handler.Start(db)

		logger.Printf("crewdeck serving on %s (db: %s)", server.Addr(), cfg.DBPath)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Println("Shutting down")
		handler.Stop()
		if err := server.Stop(); err != nil {
			logger.Printf("Error stopping dashboard server: %v", err)
		}
		return nil
	},
}
