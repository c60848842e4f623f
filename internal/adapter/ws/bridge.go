package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/saintvisionai/platform/internal/port/messagequeue"
)

// bridgeSubjects are the stream subjects mirrored to dashboard clients. These
// events originate in webhook-driven services that have no hub reference, so
// the stream is the only path to the browser.
var bridgeSubjects = []string{
	messagequeue.SubjectAgentSuspended,
	messagequeue.SubjectAgentReactivated,
	messagequeue.SubjectBillingChanged,
}

// Bridge forwards persisted platform events from the message queue to
// connected dashboard clients.
type Bridge struct {
	cancels []func()
}

// StartBridge subscribes the hub to the platform event stream. Events whose
// payload names a user are delivered only to that user's connections. The
// returned Bridge must be stopped on shutdown.
func StartBridge(ctx context.Context, queue messagequeue.Queue, hub *Hub) (*Bridge, error) {
	b := &Bridge{}
	for _, subject := range bridgeSubjects {
		cancel, err := queue.Subscribe(ctx, subject, func(subject string, data []byte) error {
			deliver(ctx, hub, subject, data)
			return nil
		})
		if err != nil {
			b.Stop()
			return nil, fmt.Errorf("bridge subscribe %s: %w", subject, err)
		}
		b.cancels = append(b.cancels, cancel)
	}
	slog.Info("dashboard event bridge started", "subjects", bridgeSubjects)
	return b, nil
}

// Stop cancels all bridge subscriptions.
func (b *Bridge) Stop() {
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

func deliver(ctx context.Context, hub *Hub, subject string, data []byte) {
	msg := Message{Type: subject, Payload: json.RawMessage(data)}

	var scope struct {
		UserID string `json:"user_id"`
	}
	_ = json.Unmarshal(data, &scope)

	if scope.UserID != "" {
		hub.BroadcastToUser(ctx, scope.UserID, msg)
		return
	}
	hub.Broadcast(ctx, msg)
}
