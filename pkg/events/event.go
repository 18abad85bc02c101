package events

import (
	"fmt"
	"time"
)

const (
	TypeDocumentUploaded = "DOCUMENT_UPLOADED"
	TypeRunProgress      = "DOCQA_PROGRESS"
	TypeAnswerPublished  = "DOCQA_PUBLISHED"
)

// Event is anything that travels on the bus.
type Event interface {
	// EventType is the upper-case code, e.g. "DOCQA_PROGRESS".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func NewEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// RunProgress reports one stage transition of a request.
type RunProgress struct {
	RequestID string
	UserID    string
	Stage     string
	Section   string
	Status    string
	Message   string
}

func NewRunProgress(p RunProgress) BaseEvent {
	return NewEvent(TypeRunProgress, map[string]interface{}{
		"request_id": p.RequestID,
		"user_id":    p.UserID,
		"stage":      p.Stage,
		"section":    p.Section,
		"status":     p.Status,
		"message":    p.Message,
	})
}

// NewAnswerPublished carries text the publish tool sent on behalf of a user.
func NewAnswerPublished(requestID, userID, text string) BaseEvent {
	return NewEvent(TypeAnswerPublished, map[string]interface{}{
		"request_id": requestID,
		"user_id":    userID,
		"text":       text,
	})
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

// Field returns a payload value as a string, "" when absent.
func Field(e Event, key string) string {
	v, ok := e.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
