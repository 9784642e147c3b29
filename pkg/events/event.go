package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the dotted event name, e.g. "chat.message.appended".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	ChatMessageAppended = "chat.message.appended"
	ChatSessionDeleted  = "chat.session.deleted"
	ReportRequested     = "report.requested"
	ReportCompleted     = "report.completed"
	ReportFailed        = "report.failed"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
