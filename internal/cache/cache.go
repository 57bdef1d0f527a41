package cache

import (
	"context"
	"time"
)

type ReceiptCache interface {
	StoreReceipt(ctx context.Context, reminderID int64, remoteMessageID string, sentAt time.Time) error
}
