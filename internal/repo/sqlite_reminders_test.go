package repo

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LeventeLantos/reminder-scheduler/internal/model"
)

func newTestRepo(t *testing.T) *SQLiteReminderRepo {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "reminders.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	r := NewSQLiteReminderRepo(db)
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return r
}

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	fireAt := time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC)
	m, err := r.Create(ctx, 42, "Buy cheese", fireAt)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if m.ID <= 0 {
		t.Fatalf("expected positive id, got %d", m.ID)
	}
	if m.Status != model.Pending {
		t.Fatalf("expected pending, got %q", m.Status)
	}
	if !m.FireAt.Equal(fireAt) {
		t.Fatalf("expected fireAt %v, got %v", fireAt, m.FireAt)
	}

	m2, err := r.Create(ctx, 42, "second", fireAt)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if m2.ID == m.ID {
		t.Fatalf("ids must be unique, both got %d", m.ID)
	}
}

func TestCreate_RejectsEmptyText(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)

	if _, err := r.Create(context.Background(), 1, "", time.Now()); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestListPending_RoundTripsFireAt(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	// Non-UTC input must come back as the same instant.
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	fireAt := time.Date(2026, 3, 29, 2, 30, 0, 0, loc)

	m, err := r.Create(ctx, 5, "dst edge", fireAt)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	pending, err := r.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}
	if !pending[0].FireAt.Equal(fireAt) {
		t.Fatalf("expected instant %v, got %v", fireAt, pending[0].FireAt)
	}
	if pending[0].ID != m.ID {
		t.Fatalf("expected id %d, got %d", m.ID, pending[0].ID)
	}
}

func TestMarkSent_ExcludesFromPending(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	m, err := r.Create(ctx, 1, "x", time.Now())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := r.MarkSent(ctx, m.ID); err != nil {
		t.Fatalf("MarkSent() error: %v", err)
	}

	pending, err := r.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
}

func TestTransitions_AreTerminal(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	m, err := r.Create(ctx, 1, "x", time.Now())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := r.MarkFailed(ctx, m.ID); err != nil {
		t.Fatalf("MarkFailed() error: %v", err)
	}

	// A second transition of either kind is a no-op on a terminal row.
	if err := r.MarkSent(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.MarkFailed(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMark_MissingRowReturnsNotFound(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)

	if err := r.MarkSent(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_ReportsStoreSideEffect(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	m, err := r.Create(ctx, 1, "x", time.Now())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	removed, err := r.Delete(ctx, m.ID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !removed {
		t.Fatalf("expected Delete() true for existing row")
	}

	removed, err = r.Delete(ctx, m.ID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if removed {
		t.Fatalf("expected Delete() false for missing row")
	}
}

func TestDelete_ThenMarkIsNoOp(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	m, err := r.Create(ctx, 1, "cancel race", time.Now())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := r.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	// The firing procedure losing the race must see a benign no-op.
	if err := r.MarkSent(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
