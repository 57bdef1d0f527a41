package model

import "time"

type Status string

const (
	Pending Status = "pending"
	Sent    Status = "sent"
	Failed  Status = "failed"
)

// Reminder is a persisted request to deliver text to a chat at a future instant.
// FireAt is an absolute UTC instant; civil times are normalized before a Reminder
// is ever created.
type Reminder struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Text        string    `json:"text"`
	FireAt      time.Time `json:"fire_at"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
