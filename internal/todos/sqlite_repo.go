package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable pragmas for an app server
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

func (r *SQLiteRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// ApplyMigrations ensures schema exists
func (r *SQLiteRepo) ApplyMigrations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS todos (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT,
	completed INTEGER NOT NULL DEFAULT 0
);
	`)
	return err
}

func (r *SQLiteRepo) List(ctx context.Context) ([]Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, completed
		FROM todos
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	defer rows.Close()

	out := []Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, completed
		FROM todos
		WHERE id = ?
	`, oid.Hex())
	return scanOne(row, "select todo")
}

func (r *SQLiteRepo) Create(ctx context.Context, title *string) (Todo, error) {
	t := Todo{
		ID:        newID(),
		Title:     copyString(title),
		Completed: false,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, completed)
		VALUES (?, ?, 0)
	`, t.ID, nullString(t.Title))
	if err != nil {
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, id string, patch Patch) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}

	completed := sql.NullBool{}
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title = CASE WHEN ? THEN ? ELSE title END,
		    completed = COALESCE(?, completed)
		WHERE id = ?
		RETURNING id, title, completed
	`, patch.Title.Set, nullString(patch.Title.Value), completed, oid.Hex())
	return scanOne(row, "update todo")
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM todos
		WHERE id = ?
		RETURNING id, title, completed
	`, oid.Hex())
	return scanOne(row, "delete todo")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (Todo, error) {
	var (
		t     Todo
		title sql.NullString
	)
	if err := s.Scan(&t.ID, &title, &t.Completed); err != nil {
		return Todo{}, err
	}
	if title.Valid {
		t.Title = &title.String
	}
	return t, nil
}

func scanOne(row *sql.Row, op string) (Todo, error) {
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}
