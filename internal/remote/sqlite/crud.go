package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewdeck/crewdeck/internal/remote"
	"github.com/crewdeck/crewdeck/internal/types"
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column (e.g. "users.email").
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// ===== Users =====

// ListUsers returns all users, newest first.
func (db *DB) ListUsers(ctx context.Context) ([]*types.User, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, email, avatar, role, created_at
		FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func scanUser(rows *sql.Rows) (*types.User, error) {
	var u types.User
	var createdAt string
	if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.Role, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// InsertUser durably inserts one user and returns the canonical record.
// A uniqueness violation on email is reported as types.ErrDuplicateEmail.
func (db *DB) InsertUser(ctx context.Context, u *types.User) (*types.User, error) {
	rec := *u
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Role == "" {
		rec.Role = types.RoleMember
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Email, rec.Avatar, string(rec.Role),
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return nil, fmt.Errorf("insert user %s: %w", rec.Email, types.ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	db.broker.publish(remote.Event{Table: remote.TableUsers, Op: remote.OpInsert, User: &rec})
	return &rec, nil
}

// InsertUsers inserts a batch of users in one transaction. Either every
// user is committed or none are.
func (db *DB) InsertUsers(ctx context.Context, us []*types.User) ([]*types.User, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	recs := make([]*types.User, 0, len(us))
	for _, u := range us {
		rec := *u
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.Role == "" {
			rec.Role = types.RoleMember
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, name, email, avatar, role, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.Email, rec.Avatar, string(rec.Role),
			rec.CreatedAt.Format(time.RFC3339))
		if err != nil {
			if isUniqueViolation(err, "users.email") {
				return nil, fmt.Errorf("insert user %s: %w", rec.Email, types.ErrDuplicateEmail)
			}
			return nil, fmt.Errorf("failed to insert user %s: %w", rec.Email, err)
		}
		recs = append(recs, &rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user batch: %w", err)
	}

	for _, rec := range recs {
		db.broker.publish(remote.Event{Table: remote.TableUsers, Op: remote.OpInsert, User: rec})
	}
	return recs, nil
}

// UpdateUser applies a partial update and returns the updated record.
// Returns types.NotFoundError if the id does not exist.
func (db *DB) UpdateUser(ctx context.Context, id string, patch types.UserPatch) (*types.User, error) {
	var sets []string
	var args []interface{}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Avatar != nil {
		sets = append(sets, "avatar = ?")
		args = append(args, *patch.Avatar)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*patch.Role))
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := db.conn.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isUniqueViolation(err, "users.email") {
				return nil, fmt.Errorf("update user %s: %w", id, types.ErrDuplicateEmail)
			}
			return nil, fmt.Errorf("failed to update user %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, &types.NotFoundError{Kind: "user", ID: id}
		}
	}

	u, err := db.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	db.broker.publish(remote.Event{Table: remote.TableUsers, Op: remote.OpUpdate, User: u})
	return u, nil
}

func (db *DB) getUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	var createdAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, email, avatar, role, created_at
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", id, err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// DeleteUser removes a user. Returns nil if the user doesn't exist
// (idempotent).
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		db.broker.publish(remote.Event{
			Table: remote.TableUsers, Op: remote.OpDelete,
			User: &types.User{ID: id},
		})
	}
	return nil
}

// ===== Projects =====

// ListProjects returns all projects, newest first.
func (db *DB) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, status, owner_id, members, created_at
		FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func scanProject(rows *sql.Rows) (*types.Project, error) {
	var p types.Project
	var membersJSON, createdAt string
	if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.OwnerID, &membersJSON, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if err := json.Unmarshal([]byte(membersJSON), &p.Members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// InsertProject durably inserts one project and returns the canonical
// record. The owner is always included in the member set.
func (db *DB) InsertProject(ctx context.Context, p *types.Project) (*types.Project, error) {
	rec := *p
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = types.ProjectPlanning
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.OwnerID != "" && !rec.HasMember(rec.OwnerID) {
		rec.Members = append([]string{rec.OwnerID}, rec.Members...)
	}

	membersJSON, err := json.Marshal(rec.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal members: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, status, owner_id, members, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Description, string(rec.Status), rec.OwnerID,
		string(membersJSON), rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	db.broker.publish(remote.Event{Table: remote.TableProjects, Op: remote.OpInsert, Project: &rec})
	return &rec, nil
}

// UpdateProject applies a partial update and returns the updated record.
// A member list that drops the owner is rejected with types.ErrOwnerRequired.
func (db *DB) UpdateProject(ctx context.Context, id string, patch types.ProjectPatch) (*types.Project, error) {
	current, err := db.getProject(ctx, id)
	if err != nil {
		return nil, err
	}

	var sets []string
	var args []interface{}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Members != nil {
		found := false
		for _, m := range patch.Members {
			if m == current.OwnerID {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("update project %s: %w", id, types.ErrOwnerRequired)
		}
		membersJSON, err := json.Marshal(patch.Members)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal members: %w", err)
		}
		sets = append(sets, "members = ?")
		args = append(args, string(membersJSON))
	}

	if len(sets) > 0 {
		args = append(args, id)
		if _, err := db.conn.ExecContext(ctx,
			"UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, fmt.Errorf("failed to update project %s: %w", id, err)
		}
	}

	p, err := db.getProject(ctx, id)
	if err != nil {
		return nil, err
	}

	db.broker.publish(remote.Event{Table: remote.TableProjects, Op: remote.OpUpdate, Project: p})
	return p, nil
}

func (db *DB) getProject(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	var membersJSON, createdAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, status, owner_id, members, created_at
		FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.OwnerID, &membersJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Kind: "project", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(membersJSON), &p.Members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// DeleteProject removes a project. Child tasks, documents and files are
// removed by the ON DELETE CASCADE constraints, and a delete event is
// published for each cascaded row so feed subscribers do not keep ghosts.
// Returns nil if the project doesn't exist (idempotent).
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	childTasks, err := db.childIDs(ctx, "tasks", id)
	if err != nil {
		return err
	}
	childDocs, err := db.childIDs(ctx, "documents", id)
	if err != nil {
		return err
	}
	childFiles, err := db.childIDs(ctx, "files", id)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil
	}

	for _, tid := range childTasks {
		db.broker.publish(remote.Event{
			Table: remote.TableTasks, Op: remote.OpDelete,
			Task: &types.Task{ID: tid, ProjectID: id},
		})
	}
	for _, did := range childDocs {
		db.broker.publish(remote.Event{
			Table: remote.TableDocuments, Op: remote.OpDelete,
			Document: &types.Document{ID: did, ProjectID: id},
		})
	}
	for _, fid := range childFiles {
		db.broker.publish(remote.Event{
			Table: remote.TableFiles, Op: remote.OpDelete,
			File: &types.FileMeta{ID: fid, ProjectID: id},
		})
	}
	db.broker.publish(remote.Event{
		Table: remote.TableProjects, Op: remote.OpDelete,
		Project: &types.Project{ID: id},
	})
	return nil
}

// childIDs collects the ids of rows in table referencing the given project.
func (db *DB) childIDs(ctx context.Context, table, projectID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id FROM "+table+" WHERE project_id = ?", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s for project %s: %w", table, projectID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ===== Tasks =====

// ListTasks returns all tasks, newest first.
func (db *DB) ListTasks(ctx context.Context) ([]*types.Task, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, status, due_date, assigned_to,
		       project_id, created_by_ai, created_at
		FROM tasks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(rows *sql.Rows) (*types.Task, error) {
	var t types.Task
	var dueDate, assignedTo sql.NullString
	var createdAt string
	var createdByAI int
	if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &dueDate,
		&assignedTo, &t.ProjectID, &createdByAI, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if du := nullStringToTime(dueDate); du != nil {
		t.DueDate = du
	}
	if assignedTo.Valid {
		t.AssignedTo = assignedTo.String
	}
	t.CreatedByAI = createdByAI != 0
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// InsertTask durably inserts one task and returns the canonical record.
func (db *DB) InsertTask(ctx context.Context, t *types.Task) (*types.Task, error) {
	rec := *t
	rec.SetDefaults()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := db.execInsertTask(ctx, db.conn.ExecContext, &rec); err != nil {
		return nil, err
	}

	db.broker.publish(remote.Event{Table: remote.TableTasks, Op: remote.OpInsert, Task: &rec})
	return &rec, nil
}

type execFunc func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

func (db *DB) execInsertTask(ctx context.Context, exec execFunc, rec *types.Task) error {
	assigned := sql.NullString{String: rec.AssignedTo, Valid: rec.AssignedTo != ""}
	createdByAI := 0
	if rec.CreatedByAI {
		createdByAI = 1
	}

	_, err := exec(ctx, `
		INSERT INTO tasks (id, name, description, status, due_date, assigned_to,
		                   project_id, created_by_ai, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Description, string(rec.Status),
		timeToNullString(rec.DueDate), assigned, rec.ProjectID, createdByAI,
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// InsertTasks inserts a batch of tasks in one transaction. Either every
// task is committed or none are.
func (db *DB) InsertTasks(ctx context.Context, ts []*types.Task) ([]*types.Task, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	recs := make([]*types.Task, 0, len(ts))
	for _, t := range ts {
		rec := *t
		rec.SetDefaults()
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid task in batch: %w", err)
		}
		if err := db.execInsertTask(ctx, tx.ExecContext, &rec); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task batch: %w", err)
	}

	for _, rec := range recs {
		db.broker.publish(remote.Event{Table: remote.TableTasks, Op: remote.OpInsert, Task: rec})
	}
	return recs, nil
}

// UpdateTask applies a partial update and returns the updated record.
// Returns types.NotFoundError if the id does not exist.
func (db *DB) UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (*types.Task, error) {
	var sets []string
	var args []interface{}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, timeToNullString(*patch.DueDate))
	}
	if patch.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, sql.NullString{String: *patch.AssignedTo, Valid: *patch.AssignedTo != ""})
	}
	if patch.ProjectID != nil {
		sets = append(sets, "project_id = ?")
		args = append(args, *patch.ProjectID)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := db.conn.ExecContext(ctx,
			"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update task %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, &types.NotFoundError{Kind: "task", ID: id}
		}
	}

	t, err := db.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	db.broker.publish(remote.Event{Table: remote.TableTasks, Op: remote.OpUpdate, Task: t})
	return t, nil
}

func (db *DB) getTask(ctx context.Context, id string) (*types.Task, error) {
	var t types.Task
	var dueDate, assignedTo sql.NullString
	var createdAt string
	var createdByAI int
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, status, due_date, assigned_to,
		       project_id, created_by_ai, created_at
		FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.Status, &dueDate,
			&assignedTo, &t.ProjectID, &createdByAI, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task %s: %w", id, err)
	}
	if du := nullStringToTime(dueDate); du != nil {
		t.DueDate = du
	}
	if assignedTo.Valid {
		t.AssignedTo = assignedTo.String
	}
	t.CreatedByAI = createdByAI != 0
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// DeleteTask removes a task. Returns nil if the task doesn't exist
// (idempotent).
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		db.broker.publish(remote.Event{
			Table: remote.TableTasks, Op: remote.OpDelete,
			Task: &types.Task{ID: id},
		})
	}
	return nil
}

// ===== Documents =====

// ListDocuments returns all documents, newest first.
func (db *DB) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, content, project_id, author_id, last_edited, created_at
		FROM documents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*types.Document
	for rows.Next() {
		var d types.Document
		var lastEdited, createdAt string
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.ProjectID,
			&d.AuthorID, &lastEdited, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.LastEdited = parseTime(lastEdited)
		d.CreatedAt = parseTime(createdAt)
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// InsertDocument durably inserts one document and returns the canonical
// record. LastEdited starts equal to CreatedAt.
func (db *DB) InsertDocument(ctx context.Context, d *types.Document) (*types.Document, error) {
	rec := *d
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.LastEdited.IsZero() {
		rec.LastEdited = rec.CreatedAt
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, project_id, author_id, last_edited, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Content, rec.ProjectID, rec.AuthorID,
		rec.LastEdited.Format(time.RFC3339), rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	db.broker.publish(remote.Event{Table: remote.TableDocuments, Op: remote.OpInsert, Document: &rec})
	return &rec, nil
}

// UpdateDocument applies a partial update. last_edited is stamped on every
// call. Returns types.NotFoundError if the id does not exist.
func (db *DB) UpdateDocument(ctx context.Context, id string, patch types.DocumentPatch) (*types.Document, error) {
	sets := []string{"last_edited = ?"}
	args := []interface{}{time.Now().Format(time.RFC3339)}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}

	args = append(args, id)
	res, err := db.conn.ExecContext(ctx,
		"UPDATE documents SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &types.NotFoundError{Kind: "document", ID: id}
	}

	d, err := db.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	db.broker.publish(remote.Event{Table: remote.TableDocuments, Op: remote.OpUpdate, Document: d})
	return d, nil
}

func (db *DB) getDocument(ctx context.Context, id string) (*types.Document, error) {
	var d types.Document
	var lastEdited, createdAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, title, content, project_id, author_id, last_edited, created_at
		FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.Title, &d.Content, &d.ProjectID, &d.AuthorID, &lastEdited, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	d.LastEdited = parseTime(lastEdited)
	d.CreatedAt = parseTime(createdAt)
	return &d, nil
}

// DeleteDocument removes a document. Returns nil if the document doesn't
// exist (idempotent).
func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		db.broker.publish(remote.Event{
			Table: remote.TableDocuments, Op: remote.OpDelete,
			Document: &types.Document{ID: id},
		})
	}
	return nil
}

// ===== Files =====

// ListFiles returns all file records, newest first.
func (db *DB) ListFiles(ctx context.Context) ([]*types.FileMeta, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, mime_type, size_bytes, project_id, uploaded_by, created_at
		FROM files ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*types.FileMeta
	for rows.Next() {
		var f types.FileMeta
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Name, &f.MimeType, &f.SizeBytes,
			&f.ProjectID, &f.UploadedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.CreatedAt = parseTime(createdAt)
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}
	return files, nil
}

// InsertFile durably inserts one file record and returns the canonical
// record.
func (db *DB) InsertFile(ctx context.Context, f *types.FileMeta) (*types.FileMeta, error) {
	rec := *f
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO files (id, name, mime_type, size_bytes, project_id, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.MimeType, rec.SizeBytes, rec.ProjectID,
		rec.UploadedBy, rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to insert file: %w", err)
	}

	db.broker.publish(remote.Event{Table: remote.TableFiles, Op: remote.OpInsert, File: &rec})
	return &rec, nil
}

// DeleteFile removes a file record. Returns nil if it doesn't exist
// (idempotent).
func (db *DB) DeleteFile(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		db.broker.publish(remote.Event{
			Table: remote.TableFiles, Op: remote.OpDelete,
			File: &types.FileMeta{ID: id},
		})
	}
	return nil
}
