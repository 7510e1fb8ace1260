package todos

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTempDB(t *testing.T) *SQLiteRepo {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	dsn, err := SQLiteFileDSN(dbPath)
	if err != nil {
		t.Fatalf("dsn error: %v", err)
	}
	repo, err := NewSQLiteRepo(dsn)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.RemoveAll(dir)
	})
	if err := repo.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return repo
}

func TestSQLiteRepo(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) Repository {
		return newTempDB(t)
	})
}

func TestSQLiteRepo_ListOrderAndMigrationsIdempotent(t *testing.T) {
	repo := newTempDB(t)
	ctx := context.Background()

	if err := repo.ApplyMigrations(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	a, err := repo.Create(ctx, strPtr("first"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	b, err := repo.Create(ctx, strPtr("second"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %s twice", a.ID)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(list))
	}
	if *list[0].Title != "first" || *list[1].Title != "second" {
		t.Fatalf("unexpected order: %+v", list)
	}
}
