package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/mtewold/chathook/internal/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.EventType
	items  []domain.WorkItem
}

func (n *recordingNotifier) Notify(ctx context.Context, eventType domain.EventType, item domain.WorkItem, actor *domain.Actor) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
	n.items = append(n.items, item)
	return true
}

func TestHandleEvent(t *testing.T) {
	notifier := &recordingNotifier{}
	c := &Consumer{notifier: notifier}

	ev := Event{
		Type: "task_created",
		Item: domain.WorkItem{ID: "task-1", ProjectID: "p1", Title: "Fix login flow"},
		Actor: &domain.Actor{
			ID:          "u1",
			DisplayName: "Dana",
		},
	}
	data, _ := json.Marshal(ev)

	c.handle(context.Background(), &nats.Msg{Subject: "workitems.events.created", Data: data})

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 dispatched event, got %d", len(notifier.events))
	}
	if notifier.events[0] != domain.EventCreated {
		t.Errorf("expected created event, got %v", notifier.events[0])
	}
	if notifier.items[0].ID != "task-1" {
		t.Errorf("unexpected item: %+v", notifier.items[0])
	}
}

func TestHandleMalformedEvent(t *testing.T) {
	notifier := &recordingNotifier{}
	c := &Consumer{notifier: notifier}

	c.handle(context.Background(), &nats.Msg{Subject: "workitems.events.x", Data: []byte("not json")})
	c.handle(context.Background(), &nats.Msg{Subject: "workitems.events.x", Data: []byte(`{"item":{}}`)})

	if len(notifier.events) != 0 {
		t.Errorf("malformed events must not dispatch, got %d", len(notifier.events))
	}
}

func TestHandleUnknownTypeDispatchesAsCustom(t *testing.T) {
	notifier := &recordingNotifier{}
	c := &Consumer{notifier: notifier}

	ev := Event{Type: "task_archived", Item: domain.WorkItem{ID: "task-2", ProjectID: "p1"}}
	data, _ := json.Marshal(ev)
	c.handle(context.Background(), &nats.Msg{Subject: "workitems.events.archived", Data: data})

	if len(notifier.events) != 1 || notifier.events[0] != domain.EventCustom {
		t.Errorf("unknown type should dispatch as custom, got %v", notifier.events)
	}
}
