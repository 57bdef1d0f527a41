package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LeventeLantos/reminder-scheduler/internal/model"
)

const timeLayout = time.RFC3339Nano

type SQLiteReminderRepo struct {
	db *sql.DB
}

func NewSQLiteReminderRepo(db *sql.DB) *SQLiteReminderRepo {
	return &SQLiteReminderRepo{db: db}
}

// Migrate creates the reminders table if it does not exist yet.
// Status is stored as two booleans: both zero = pending, exactly one set = terminal.
func (r *SQLiteReminderRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recipient_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			fire_at TEXT NOT NULL,
			sent INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate reminders: %w", err)
	}
	return nil
}

func (r *SQLiteReminderRepo) Create(ctx context.Context, recipientID int64, text string, fireAt time.Time) (model.Reminder, error) {
	if text == "" {
		return model.Reminder{}, errors.New("text must not be empty")
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (recipient_id, text, fire_at, sent, failed, created_at)
		VALUES (?, ?, ?, 0, 0, ?)
	`, recipientID, text, fireAt.UTC().Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return model.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Reminder{}, fmt.Errorf("insert reminder id: %w", err)
	}

	return model.Reminder{
		ID:          id,
		RecipientID: recipientID,
		Text:        text,
		FireAt:      fireAt.UTC(),
		Status:      model.Pending,
		CreatedAt:   now,
	}, nil
}

func (r *SQLiteReminderRepo) MarkSent(ctx context.Context, id int64) error {
	return r.transition(ctx, id, "sent")
}

func (r *SQLiteReminderRepo) MarkFailed(ctx context.Context, id int64) error {
	return r.transition(ctx, id, "failed")
}

// transition flips exactly one terminal flag. The guard on both flags keeps
// terminal states from ever reverting and makes a row deleted by a concurrent
// cancel a no-op.
func (r *SQLiteReminderRepo) transition(ctx context.Context, id int64, column string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE reminders
		SET %s = 1
		WHERE id = ? AND sent = 0 AND failed = 0
	`, column), id)
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteReminderRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLiteReminderRepo) ListPending(ctx context.Context) ([]model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recipient_id, text, fire_at, created_at
		FROM reminders
		WHERE sent = 0 AND failed = 0
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var out []model.Reminder
	for rows.Next() {
		var (
			m         model.Reminder
			fireAt    string
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.RecipientID, &m.Text, &fireAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}

		m.FireAt, err = time.Parse(timeLayout, fireAt)
		if err != nil {
			return nil, fmt.Errorf("parse fire_at for id=%d: %w", m.ID, err)
		}
		// created_at may come from the column default, which is not RFC 3339.
		if t, perr := time.Parse(timeLayout, createdAt); perr == nil {
			m.CreatedAt = t
		} else if t, perr := time.Parse("2006-01-02 15:04:05", createdAt); perr == nil {
			m.CreatedAt = t.UTC()
		}

		m.Status = model.Pending
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ ReminderRepository = (*SQLiteReminderRepo)(nil)
