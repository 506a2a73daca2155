// Handler bridges the change-notification feed to dashboard broadcasts.
package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/crewdeck/crewdeck/internal/remote"
	"github.com/crewdeck/crewdeck/internal/store"
)

// Handler subscribes to the change feed and formats events as dashboard
// messages. Task changes additionally trigger a stats broadcast for the
// affected project, computed from the store's in-memory snapshot.
type Handler struct {
	server *Server
	st     *store.Store
	logger *log.Logger

	cancels []func()
	wg      sync.WaitGroup
	once    sync.Once
}

// NewHandler creates an event handler connected to a dashboard server.
func NewHandler(server *Server, st *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		st:     st,
		logger: logger,
	}
}

// Start subscribes to every table on the feed and begins broadcasting.
func (h *Handler) Start(feed remote.Feed) {
	tables := []remote.Table{
		remote.TableUsers,
		remote.TableProjects,
		remote.TableTasks,
		remote.TableDocuments,
		remote.TableFiles,
	}

	for _, table := range tables {
		ch, cancel := feed.Subscribe(table)
		h.cancels = append(h.cancels, cancel)

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for ev := range ch {
				h.handle(ev)
			}
		}()
	}
}

// Stop releases the feed subscriptions and waits for the broadcast
// goroutines to drain.
func (h *Handler) Stop() {
	h.once.Do(func() {
		for _, cancel := range h.cancels {
			cancel()
		}
		h.wg.Wait()
	})
}

func (h *Handler) handle(ev remote.Event) {
	change := ChangeData{
		ID:     ev.RecordID(),
		Action: actionFor(ev.Op),
	}

	var msgType MessageType
	switch ev.Table {
	case remote.TableTasks:
		msgType = MessageTypeTaskUpdate
		if ev.Task != nil {
			change.ProjectID = ev.Task.ProjectID
			change.Name = ev.Task.Name
			change.Status = string(ev.Task.Status)
		}
	case remote.TableProjects:
		msgType = MessageTypeProjectUpdate
		if ev.Project != nil {
			change.Name = ev.Project.Name
			change.Status = string(ev.Project.Status)
		}
	case remote.TableDocuments:
		msgType = MessageTypeDocumentUpdate
		if ev.Document != nil {
			change.ProjectID = ev.Document.ProjectID
			change.Name = ev.Document.Title
		}
	case remote.TableFiles:
		msgType = MessageTypeFileUpdate
		if ev.File != nil {
			change.ProjectID = ev.File.ProjectID
			change.Name = ev.File.Name
		}
	case remote.TableUsers:
		msgType = MessageTypeUserUpdate
		if ev.User != nil {
			change.Name = ev.User.Name
		}
	default:
		return
	}

	h.broadcast(msgType, change)

	// Task changes move the project's progress; push fresh stats too.
	if ev.Table == remote.TableTasks && change.ProjectID != "" {
		h.broadcastStats(change.ProjectID)
	}
}

func (h *Handler) broadcast(msgType MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", msgType, err)
		return
	}

	h.server.Broadcast(Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      payload,
	})
}

func (h *Handler) broadcastStats(projectID string) {
	stats := h.st.GetTaskStats(projectID)
	h.broadcast(MessageTypeStats, StatsData{
		ProjectID:  projectID,
		Total:      stats.Total,
		Todo:       stats.Todo,
		InProgress: stats.InProgress,
		Done:       stats.Done,
		Progress:   h.st.GetProjectProgress(projectID),
	})
}

func actionFor(op remote.Op) string {
	switch op {
	case remote.OpInsert:
		return "created"
	case remote.OpUpdate:
		return "updated"
	case remote.OpDelete:
		return "deleted"
	default:
		return "unknown"
	}
}
