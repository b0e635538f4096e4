package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a write targets a parent row that does not exist.
var ErrNotFound = errors.New("not found")

type TaskList struct {
	ID        string
	Title     string
	Date      time.Time
	TaskCount int
}

type Task struct {
	ID         string
	ListID     string
	Title      string
	Note       string
	IsComplete bool
	Date       time.Time
}

type Store struct {
	db   *sql.DB
	path string
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	filePath := dbPath
	if strings.HasPrefix(filePath, "file:") {
		filePath, _, _ = strings.Cut(strings.TrimPrefix(filePath, "file:"), "?")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: filePath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS task_lists (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	list_id TEXT NOT NULL REFERENCES task_lists(id) ON DELETE CASCADE,
	title TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	done INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_list_done ON tasks(list_id, done);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"note": "ALTER TABLE tasks ADD COLUMN note TEXT NOT NULL DEFAULT '';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// FetchTaskLists returns every task list in creation order with its task count.
func (s *Store) FetchTaskLists(ctx context.Context) ([]TaskList, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT l.id, l.title, l.created_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.list_id = l.id)
FROM task_lists l
ORDER BY l.created_at, l.seq;`)
	if err != nil {
		return nil, fmt.Errorf("query task lists: %w", err)
	}
	defer rows.Close()

	var lists []TaskList
	for rows.Next() {
		var l TaskList
		var createdStr string
		if err := rows.Scan(&l.ID, &l.Title, &createdStr, &l.TaskCount); err != nil {
			return nil, err
		}
		l.Date = parseTime(createdStr)
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lists, nil
}

// FetchTasks returns the tasks of one list in insertion order. When complete is
// valid only tasks with that completion state are returned.
func (s *Store) FetchTasks(ctx context.Context, listID string, complete sql.NullBool) ([]Task, error) {
	query := `SELECT id, list_id, title, note, done, created_at FROM tasks WHERE list_id = ?`
	args := []any{listID}
	if complete.Valid {
		query += ` AND done = ?`
		args = append(args, boolToInt(complete.Bool))
	}
	query += ` ORDER BY seq;`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var doneInt int
		var createdStr string
		if err := rows.Scan(&t.ID, &t.ListID, &t.Title, &t.Note, &doneInt, &createdStr); err != nil {
			return nil, err
		}
		t.IsComplete = doneInt == 1
		t.Date = parseTime(createdStr)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) AddTaskList(ctx context.Context, l TaskList) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO task_lists (id, title, created_at) VALUES (?, ?, ?);`,
			l.ID, l.Title, formatTime(l.Date))
		return err
	})
}

// AddTask appends t to its parent list. It returns ErrNotFound when the parent
// list no longer exists.
func (s *Store) AddTask(ctx context.Context, t Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM task_lists WHERE id = ?;`, t.ListID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task list %s: %w", t.ListID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO tasks (id, list_id, title, note, done, created_at) VALUES (?, ?, ?, ?, ?, ?);`,
			t.ID, t.ListID, t.Title, t.Note, boolToInt(t.IsComplete), formatTime(t.Date))
		return err
	})
}

// The mutators below report whether a row was touched so callers can tell a
// vanished entity apart from a real write.

func (s *Store) RenameTaskList(ctx context.Context, id, title string) (bool, error) {
	return s.execAffecting(ctx, `UPDATE task_lists SET title = ? WHERE id = ?;`, title, id)
}

func (s *Store) UpdateTask(ctx context.Context, id, title, note string) (bool, error) {
	return s.execAffecting(ctx, `UPDATE tasks SET title = ?, note = ? WHERE id = ?;`, title, note, id)
}

// DeleteTaskList removes the list; its tasks go with it through the foreign key.
func (s *Store) DeleteTaskList(ctx context.Context, id string) (bool, error) {
	return s.execAffecting(ctx, `DELETE FROM task_lists WHERE id = ?;`, id)
}

func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	return s.execAffecting(ctx, `DELETE FROM tasks WHERE id = ?;`, id)
}

// CompleteTasks marks every task of the list done. It reports false only when
// the list itself is gone.
func (s *Store) CompleteTasks(ctx context.Context, listID string) (bool, error) {
	found := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM task_lists WHERE id = ?;`, listID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET done = 1 WHERE list_id = ? AND done = 0;`, listID)
		return err
	})
	return found, err
}

func (s *Store) ToggleTask(ctx context.Context, id string) (bool, error) {
	return s.execAffecting(ctx, `UPDATE tasks SET done = 1 - done WHERE id = ?;`, id)
}

func (s *Store) execAffecting(ctx context.Context, query string, args ...any) (bool, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n > 0, err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if parsed, err := time.Parse(timeLayout, s); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return parsed
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return withPragmas(path)
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

// withPragmas adds the pragmas the store depends on to a caller-built file: DSN
// unless the caller already set them.
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range []struct{ name, value string }{
		{"busy_timeout", "busy_timeout(5000)"},
		{"foreign_keys", "foreign_keys(1)"},
	} {
		if strings.Contains(dsn, p.name) {
			continue
		}
		dsn += sep + "_pragma=" + url.QueryEscape(p.value)
		sep = "&"
	}
	return dsn
}
