package service

import (
	"context"
	"fmt"
)

const reminderPrefix = "⏰ Reminder: "

type SendClient interface {
	SendText(ctx context.Context, chatID int64, text string) (remoteMessageID string, err error)
}

// Dispatcher renders a reminder and hands it to the messaging collaborator.
// Delivery is single-attempt: any transport error is final for the attempt.
type Dispatcher struct {
	client SendClient
}

func NewDispatcher(client SendClient) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Deliver(ctx context.Context, recipientID int64, text string) (string, error) {
	remoteID, err := d.client.SendText(ctx, recipientID, reminderPrefix+text)
	if err != nil {
		return "", fmt.Errorf("deliver reminder to chat %d: %w", recipientID, err)
	}
	return remoteID, nil
}
