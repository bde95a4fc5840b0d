package domain

// EventType identifies what happened to a work item. The set is closed:
// routing, formatting and endpoint filtering all switch exhaustively on it.
type EventType int

const (
	EventUnspecified EventType = iota
	EventCreated
	EventUpdated
	EventAssigned
	EventCompleted
	EventCustom
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "task_created"
	case EventUpdated:
		return "task_updated"
	case EventAssigned:
		return "task_assigned"
	case EventCompleted:
		return "task_completed"
	case EventCustom:
		return "custom"
	default:
		return "unspecified"
	}
}

// ParseEventType maps the wire name back to an EventType. Unknown names
// map to EventCustom so inbound events are never silently dropped on a
// name mismatch.
func ParseEventType(s string) EventType {
	switch s {
	case "task_created":
		return EventCreated
	case "task_updated":
		return EventUpdated
	case "task_assigned":
		return EventAssigned
	case "task_completed":
		return EventCompleted
	case "":
		return EventUnspecified
	default:
		return EventCustom
	}
}
