package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/crewdeck/crewdeck/internal/remote"
	"github.com/crewdeck/crewdeck/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return db
}

// drain pops one event without blocking; the broker publishes before the
// mutating call returns, so the event is already buffered.
func drain(t *testing.T, ch <-chan remote.Event) remote.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	default:
		t.Fatal("no event buffered")
		return remote.Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan remote.Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %v %s", ev.Op, ev.RecordID())
	default:
	}
}

func TestUserCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec, err := db.InsertUser(ctx, &types.User{Name: "Ana Lopez", Email: "ana@x.com", Avatar: "AL"})
	if err != nil {
		t.Fatalf("InsertUser() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("InsertUser() did not assign an id")
	}
	if rec.Role != types.RoleMember {
		t.Errorf("default role = %q, want member", rec.Role)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("InsertUser() did not stamp created_at")
	}

	users, err := db.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 || users[0].Email != "ana@x.com" {
		t.Errorf("ListUsers() = %v", users)
	}

	name := "Ana L."
	updated, err := db.UpdateUser(ctx, rec.ID, types.UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Name != "Ana L." {
		t.Errorf("updated name = %q", updated.Name)
	}

	if _, err := db.UpdateUser(ctx, "missing", types.UserPatch{Name: &name}); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("UpdateUser(missing) error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteUser(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := db.DeleteUser(ctx, rec.ID); err != nil {
		t.Errorf("repeated DeleteUser() error = %v, want nil", err)
	}
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertUser(ctx, &types.User{Name: "A", Email: "dup@x.com"}); err != nil {
		t.Fatalf("InsertUser() error = %v", err)
	}
	_, err := db.InsertUser(ctx, &types.User{Name: "B", Email: "dup@x.com"})
	if !errors.Is(err, types.ErrDuplicateEmail) {
		t.Errorf("InsertUser() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestInsertUsersAtomicity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	batch := []*types.User{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "a@x.com"}, // duplicate inside the batch
	}
	if _, err := db.InsertUsers(ctx, batch); !errors.Is(err, types.ErrDuplicateEmail) {
		t.Fatalf("InsertUsers() error = %v, want ErrDuplicateEmail", err)
	}

	users, err := db.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("failed batch committed %d users, want 0", len(users))
	}
}

func TestInsertProjectIncludesOwnerInMembers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.InsertProject(ctx, &types.Project{
		Name:    "Apollo",
		OwnerID: "u1",
		Members: []string{"u2"},
	})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}
	if len(p.Members) != 2 || p.Members[0] != "u1" {
		t.Errorf("members = %v, want owner prepended", p.Members)
	}
	if p.Status != types.ProjectPlanning {
		t.Errorf("default status = %q, want Planning", p.Status)
	}

	// The stored row matches the returned record.
	got, err := db.getProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("getProject() error = %v", err)
	}
	if len(got.Members) != 2 || got.Members[0] != "u1" {
		t.Errorf("stored members = %v", got.Members)
	}
}

func TestUpdateProjectOwnerInvariant(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.InsertProject(ctx, &types.Project{Name: "Apollo", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	_, err = db.UpdateProject(ctx, p.ID, types.ProjectPatch{Members: []string{"u2"}})
	if !errors.Is(err, types.ErrOwnerRequired) {
		t.Fatalf("UpdateProject() error = %v, want ErrOwnerRequired", err)
	}

	got, err := db.getProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("getProject() error = %v", err)
	}
	if len(got.Members) != 1 || got.Members[0] != "u1" {
		t.Errorf("members changed after rejected update: %v", got.Members)
	}
}

func TestTaskRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.InsertProject(ctx, &types.Project{Name: "Apollo", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	due := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	rec, err := db.InsertTask(ctx, &types.Task{
		Name:        "Ship it",
		ProjectID:   p.ID,
		DueDate:     &due,
		AssignedTo:  "u1",
		CreatedByAI: true,
	})
	if err != nil {
		t.Fatalf("InsertTask() error = %v", err)
	}
	if rec.Status != types.TaskTodo {
		t.Errorf("default status = %q, want To Do", rec.Status)
	}

	got, err := db.getTask(ctx, rec.ID)
	if err != nil {
		t.Fatalf("getTask() error = %v", err)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}
	if !got.CreatedByAI {
		t.Error("created_by_ai flag lost in round trip")
	}
	if got.AssignedTo != "u1" {
		t.Errorf("assigned_to = %q, want u1", got.AssignedTo)
	}

	// Clearing a due date writes NULL.
	var noDue *time.Time
	cleared, err := db.UpdateTask(ctx, rec.ID, types.TaskPatch{DueDate: &noDue})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if cleared.DueDate != nil {
		t.Errorf("due date = %v after clearing, want nil", cleared.DueDate)
	}
}

func TestInsertTaskRejectsInvalid(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertTask(ctx, &types.Task{ProjectID: "p"}); err == nil {
		t.Error("InsertTask() without a name succeeded")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.InsertProject(ctx, &types.Project{Name: "Apollo", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}
	task, err := db.InsertTask(ctx, &types.Task{Name: "t", ProjectID: p.ID})
	if err != nil {
		t.Fatalf("InsertTask() error = %v", err)
	}
	doc, err := db.InsertDocument(ctx, &types.Document{Title: "d", ProjectID: p.ID, AuthorID: "u1"})
	if err != nil {
		t.Fatalf("InsertDocument() error = %v", err)
	}
	file, err := db.InsertFile(ctx, &types.FileMeta{Name: "f.png", ProjectID: p.ID, UploadedBy: "u1"})
	if err != nil {
		t.Fatalf("InsertFile() error = %v", err)
	}

	taskCh, cancelTasks := db.Subscribe(remote.TableTasks)
	defer cancelTasks()
	docCh, cancelDocs := db.Subscribe(remote.TableDocuments)
	defer cancelDocs()
	fileCh, cancelFiles := db.Subscribe(remote.TableFiles)
	defer cancelFiles()
	projCh, cancelProjects := db.Subscribe(remote.TableProjects)
	defer cancelProjects()

	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	tasks, _ := db.ListTasks(ctx)
	docs, _ := db.ListDocuments(ctx)
	files, _ := db.ListFiles(ctx)
	if len(tasks)+len(docs)+len(files) != 0 {
		t.Errorf("cascade left %d tasks, %d documents, %d files", len(tasks), len(docs), len(files))
	}

	// Every cascaded child gets its own delete event, then the project.
	if ev := drain(t, taskCh); ev.Op != remote.OpDelete || ev.Task.ID != task.ID {
		t.Errorf("task event = %v %s", ev.Op, ev.RecordID())
	}
	if ev := drain(t, docCh); ev.Op != remote.OpDelete || ev.Document.ID != doc.ID {
		t.Errorf("document event = %v %s", ev.Op, ev.RecordID())
	}
	if ev := drain(t, fileCh); ev.Op != remote.OpDelete || ev.File.ID != file.ID {
		t.Errorf("file event = %v %s", ev.Op, ev.RecordID())
	}
	if ev := drain(t, projCh); ev.Op != remote.OpDelete || ev.Project.ID != p.ID {
		t.Errorf("project event = %v %s", ev.Op, ev.RecordID())
	}
}

func TestFeedDeliveryOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.InsertProject(ctx, &types.Project{Name: "Apollo", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	ch, cancel := db.Subscribe(remote.TableTasks)
	defer cancel()

	rec, err := db.InsertTask(ctx, &types.Task{Name: "t", ProjectID: p.ID})
	if err != nil {
		t.Fatalf("InsertTask() error = %v", err)
	}
	status := types.TaskDone
	if _, err := db.UpdateTask(ctx, rec.ID, types.TaskPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if err := db.DeleteTask(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	wantOps := []remote.Op{remote.OpInsert, remote.OpUpdate, remote.OpDelete}
	for i, want := range wantOps {
		ev := drain(t, ch)
		if ev.Op != want {
			t.Errorf("event %d op = %v, want %v", i, ev.Op, want)
		}
		if ev.RecordID() != rec.ID {
			t.Errorf("event %d id = %q, want %q", i, ev.RecordID(), rec.ID)
		}
	}
}

func TestDeleteAbsentPublishesNothing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ch, cancel := db.Subscribe(remote.TableTasks)
	defer cancel()

	if err := db.DeleteTask(ctx, "ghost"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	assertNoEvent(t, ch)
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	db := openTestDB(t)

	ch, cancel := db.Subscribe(remote.TableUsers)
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel delivered an event after cancel")
	}
	// Cancelling twice is safe.
	cancel()
}

func TestDocumentUpdateStampsLastEdited(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.InsertProject(ctx, &types.Project{Name: "Apollo", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}
	doc, err := db.InsertDocument(ctx, &types.Document{Title: "d", ProjectID: p.ID, AuthorID: "u1"})
	if err != nil {
		t.Fatalf("InsertDocument() error = %v", err)
	}
	if !doc.LastEdited.Equal(doc.CreatedAt) {
		t.Errorf("new document LastEdited = %v, want CreatedAt %v", doc.LastEdited, doc.CreatedAt)
	}

	time.Sleep(1100 * time.Millisecond) // RFC3339 storage has second precision
	content := "<p>updated</p>"
	updated, err := db.UpdateDocument(ctx, doc.ID, types.DocumentPatch{Content: &content})
	if err != nil {
		t.Fatalf("UpdateDocument() error = %v", err)
	}
	if !updated.LastEdited.After(doc.LastEdited) {
		t.Errorf("LastEdited not advanced: %v -> %v", doc.LastEdited, updated.LastEdited)
	}
}

func TestListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	older := time.Now().Add(-time.Hour)
	if _, err := db.InsertUser(ctx, &types.User{Name: "Old", Email: "old@x.com", CreatedAt: older}); err != nil {
		t.Fatalf("InsertUser() error = %v", err)
	}
	if _, err := db.InsertUser(ctx, &types.User{Name: "New", Email: "new@x.com"}); err != nil {
		t.Fatalf("InsertUser() error = %v", err)
	}

	users, err := db.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0].Name != "New" {
		t.Errorf("ListUsers() order = %v, want newest first", users)
	}
}
