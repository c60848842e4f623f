package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/saintvisionai/platform/internal/port/messagequeue"
)

// fakeQueue records subscriptions and lets tests inject messages.
type fakeQueue struct {
	handlers map[string]messagequeue.Handler
	canceled []string
	subErr   error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{handlers: make(map[string]messagequeue.Handler)}
}

func (q *fakeQueue) Publish(_ context.Context, _ string, _ []byte) error { return nil }

func (q *fakeQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	if q.subErr != nil {
		return nil, q.subErr
	}
	q.handlers[subject] = handler
	return func() { q.canceled = append(q.canceled, subject) }, nil
}

func (q *fakeQueue) Close() error { return nil }

func TestBridgeSubscribesBillingSubjects(t *testing.T) {
	queue := newFakeQueue()
	bridge, err := StartBridge(context.Background(), queue, NewHub())
	if err != nil {
		t.Fatalf("StartBridge failed: %v", err)
	}

	for _, subject := range []string{
		messagequeue.SubjectAgentSuspended,
		messagequeue.SubjectAgentReactivated,
		messagequeue.SubjectBillingChanged,
	} {
		if queue.handlers[subject] == nil {
			t.Fatalf("no subscription for %s", subject)
		}
	}

	bridge.Stop()
	if len(queue.canceled) != len(bridgeSubjects) {
		t.Fatalf("expected %d cancels, got %d", len(bridgeSubjects), len(queue.canceled))
	}
}

func TestBridgeSubscribeFailure(t *testing.T) {
	queue := newFakeQueue()
	queue.subErr = errors.New("stream gone")

	if _, err := StartBridge(context.Background(), queue, NewHub()); err == nil {
		t.Fatal("expected error when subscription fails")
	}
}

func TestBridgeDeliversWithoutConnections(t *testing.T) {
	queue := newFakeQueue()
	bridge, err := StartBridge(context.Background(), queue, NewHub())
	if err != nil {
		t.Fatalf("StartBridge failed: %v", err)
	}
	defer bridge.Stop()

	// User-scoped and broadcast payloads must both be handled with no
	// connections present.
	h := queue.handlers[messagequeue.SubjectBillingChanged]
	if err := h(messagequeue.SubjectBillingChanged, []byte(`{"user_id":"u1","tier":"pro"}`)); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if err := h(messagequeue.SubjectBillingChanged, []byte(`{"tier":"pro"}`)); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
}
