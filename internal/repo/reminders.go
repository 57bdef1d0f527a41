package repo

import (
	"context"
	"errors"
	"time"

	"github.com/LeventeLantos/reminder-scheduler/internal/model"
)

// ErrNotFound is returned when a status transition or lookup references a
// reminder that no longer exists (or is already terminal). Callers racing a
// concurrent cancel treat it as a benign no-op.
var ErrNotFound = errors.New("reminder not found")

type ReminderRepository interface {
	Create(ctx context.Context, recipientID int64, text string, fireAt time.Time) (model.Reminder, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListPending(ctx context.Context) ([]model.Reminder, error)
}
