package scheduler

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LeventeLantos/reminder-scheduler/internal/model"
	"github.com/LeventeLantos/reminder-scheduler/internal/repo"
)

func newSQLiteRepo(t *testing.T, path string) *repo.SQLiteReminderRepo {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	r := repo.NewSQLiteReminderRepo(db)
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return r
}

// Simulates a restart: the first engine persists an overdue reminder and
// dies before firing; a second engine over the same database recovers it and
// delivers immediately.
func TestRecover_RedeliversAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reminders.db")
	ctx := context.Background()

	first := newSQLiteRepo(t, path)
	m, err := first.Create(ctx, 42, "survived a restart", time.Now().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// "Restarted" process: fresh repo handle, fresh engine, empty registry.
	second := newSQLiteRepo(t, path)
	d := &fakeDispatcher{}
	e := New(second, &fakeValidator{}, d)

	if err := e.Recover(ctx); err != nil {
		t.Fatalf("Recover() error: %v", err)
	}

	waitFor(t, 2*time.Second, "overdue reminder to be redelivered", func() bool {
		return d.deliverCount() >= 1
	})

	// The terminal mark lands right after delivery.
	waitFor(t, 2*time.Second, "row to leave pending", func() bool {
		pending, err := second.ListPending(ctx)
		if err != nil {
			t.Fatalf("ListPending() error: %v", err)
		}
		for _, p := range pending {
			if p.ID == m.ID {
				return false
			}
		}
		return true
	})
}

// Full lifecycle against the real store: schedule, fire, verify the terminal
// row, then confirm a second recovery-free engine sees nothing to do.
func TestEngine_SQLiteLifecycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reminders.db")
	ctx := context.Background()

	r := newSQLiteRepo(t, path)
	d := &fakeDispatcher{}
	e := New(r, &fakeValidator{}, d)

	m, err := e.Schedule(ctx, 42, "Buy cheese", time.Now().Add(25*time.Millisecond))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if m.Status != model.Pending {
		t.Fatalf("expected pending, got %q", m.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		pending, err := r.ListPending(ctx)
		if err != nil {
			t.Fatalf("ListPending() error: %v", err)
		}
		if len(pending) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("reminder never left pending")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if d.deliverCount() != 1 {
		t.Fatalf("expected one delivery, got %d", d.deliverCount())
	}

	e2 := New(newSQLiteRepo(t, path), &fakeValidator{}, d)
	if err := e2.Recover(ctx); err != nil {
		t.Fatalf("Recover() error: %v", err)
	}
	if e2.ArmedJobs() != 0 {
		t.Fatalf("expected nothing to re-arm, got %d", e2.ArmedJobs())
	}
}
