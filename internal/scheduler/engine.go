// Package scheduler orchestrates reminder lifecycle: it persists reminders,
// arms one-shot timers for them, recovers pending reminders across restarts
// and drives validation + delivery when a timer expires.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LeventeLantos/reminder-scheduler/internal/model"
	"github.com/LeventeLantos/reminder-scheduler/internal/registry"
	"github.com/LeventeLantos/reminder-scheduler/internal/repo"
)

type Validator interface {
	ValidateRecipient(ctx context.Context, chatID int64) bool
}

type Deliverer interface {
	Deliver(ctx context.Context, recipientID int64, text string) (remoteMessageID string, err error)
}

// Engine is the single scheduler for this process. The store is the source
// of truth; the job registry only mirrors it while the process is alive.
// Firing is at-least-once: a crash between delivery and MarkSent leaves the
// row pending and it is redelivered on the next Recover.
type Engine struct {
	repo        repo.ReminderRepository
	jobs        *registry.JobRegistry
	validator   Validator
	dispatcher  Deliverer
	fireTimeout time.Duration

	onSent   func(ctx context.Context, id int64, remoteMessageID string, sentAt time.Time) error
	onFailed func(ctx context.Context, id int64, reason string) error

	mu        sync.Mutex
	recovered bool
}

func New(r repo.ReminderRepository, v Validator, d Deliverer) *Engine {
	return &Engine{
		repo:        r,
		jobs:        registry.New(),
		validator:   v,
		dispatcher:  d,
		fireTimeout: 30 * time.Second,
	}
}

// WithHooks attaches best-effort side effects: onSent after a successful
// delivery, onFailed after a validation or delivery failure. Hook errors are
// logged, never propagated.
func (e *Engine) WithHooks(
	onSent func(ctx context.Context, id int64, remoteMessageID string, sentAt time.Time) error,
	onFailed func(ctx context.Context, id int64, reason string) error,
) *Engine {
	e.onSent = onSent
	e.onFailed = onFailed
	return e
}

// Schedule persists a pending reminder and arms its timer. A fireAt in the
// past is not an error: the reminder fires as soon as possible. If the store
// write fails no timer is armed.
func (e *Engine) Schedule(ctx context.Context, recipientID int64, text string, fireAt time.Time) (model.Reminder, error) {
	m, err := e.repo.Create(ctx, recipientID, text, fireAt)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("storage: %w", err)
	}

	e.arm(m)

	slog.Info("reminder scheduled",
		"id", m.ID,
		"recipient_id", m.RecipientID,
		"fire_at", m.FireAt)
	return m, nil
}

// Cancel stops the timer (best-effort; it may already be firing) and deletes
// the row. The result is defined by store-side effect: true only if a row was
// actually removed.
func (e *Engine) Cancel(ctx context.Context, id int64) (bool, error) {
	e.jobs.Cancel(id)

	deleted, err := e.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("storage: %w", err)
	}
	if deleted {
		slog.Info("reminder cancelled", "id", id)
	}
	return deleted, nil
}

// List returns all pending reminders.
func (e *Engine) List(ctx context.Context) ([]model.Reminder, error) {
	items, err := e.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return items, nil
}

// Recover re-arms a timer for every pending row. It must run exactly once
// per process, before Schedule or Cancel are accepted; a second call is an
// error rather than a guess at a dedup policy. Overdue reminders fire
// immediately.
func (e *Engine) Recover(ctx context.Context) error {
	e.mu.Lock()
	if e.recovered {
		e.mu.Unlock()
		return errors.New("recover already ran for this process")
	}
	e.recovered = true
	e.mu.Unlock()

	pending, err := e.repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	for _, m := range pending {
		e.arm(m)
	}

	slog.Info("recovery complete", "pending", len(pending))
	return nil
}

// ArmedJobs reports how many timers are currently registered.
func (e *Engine) ArmedJobs() int {
	return e.jobs.Len()
}

func (e *Engine) arm(m model.Reminder) {
	delay := time.Until(m.FireAt)
	if delay < 0 {
		delay = 0
	}

	timer := time.AfterFunc(delay, func() {
		e.fire(m)
	})
	e.jobs.Register(m.ID, timer)
}

// fire is the detached firing procedure: validate, deliver, persist the
// terminal status. There is no caller to report to, so every failure ends in
// the row's status and a log line. A row deleted by a concurrent Cancel makes
// the final mark a no-op.
func (e *Engine) fire(m model.Reminder) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("firing panic recovered", "id", m.ID, "panic", r)
		}
	}()
	defer e.jobs.Remove(m.ID)

	ctx, cancel := context.WithTimeout(context.Background(), e.fireTimeout)
	defer cancel()

	if !e.validator.ValidateRecipient(ctx, m.RecipientID) {
		e.markFailed(ctx, m.ID, fmt.Sprintf("recipient %d unreachable", m.RecipientID))
		return
	}

	remoteID, err := e.dispatcher.Deliver(ctx, m.RecipientID, m.Text)
	if err != nil {
		e.markFailed(ctx, m.ID, err.Error())
		return
	}

	if err := e.repo.MarkSent(ctx, m.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		slog.Error("failed to mark reminder sent", "id", m.ID, "error", err)
		return
	}

	slog.Info("reminder sent", "id", m.ID, "recipient_id", m.RecipientID, "remote_id", remoteID)

	if e.onSent != nil {
		if err := e.onSent(ctx, m.ID, remoteID, time.Now().UTC()); err != nil {
			slog.Warn("onSent hook failed", "id", m.ID, "error", err)
		}
	}
}

func (e *Engine) markFailed(ctx context.Context, id int64, reason string) {
	if err := e.repo.MarkFailed(ctx, id); err != nil && !errors.Is(err, repo.ErrNotFound) {
		slog.Error("failed to mark reminder failed", "id", id, "error", err)
		return
	}

	slog.Warn("reminder failed", "id", id, "reason", reason)

	if e.onFailed != nil {
		if err := e.onFailed(ctx, id, reason); err != nil {
			slog.Warn("onFailed hook failed", "id", id, "error", err)
		}
	}
}
