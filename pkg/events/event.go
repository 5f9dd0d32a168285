// Package events defines the domain events published by the blog editor.
package events

import "time"

const (
	BlogContentSaved = "BLOG_CONTENT_SAVED"
	BlogMediaRemoved = "BLOG_MEDIA_REMOVED"
)

// Event is anything that can be put on the event bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
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

// String returns a payload field, or "" when it is missing or not a string.
func (e BaseEvent) String(key string) string {
	v, _ := e.Data[key].(string)
	return v
}

// NewBlogContentSaved is emitted after a submit stored a blog. SessionID is
// the editor session that saved it.
func NewBlogContentSaved(projectID, blogID, sessionID string, uploaded, removed int, at time.Time) BaseEvent {
	return BaseEvent{
		Type: BlogContentSaved,
		Data: map[string]interface{}{
			"project_id": projectID,
			"blog_id":    blogID,
			"session_id": sessionID,
			"uploaded":   uploaded,
			"removed":    removed,
		},
		OccurredAt: at,
	}
}

func NewBlogMediaRemoved(projectID, blogID string, paths []string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: BlogMediaRemoved,
		Data: map[string]interface{}{
			"project_id": projectID,
			"blog_id":    blogID,
			"paths":      paths,
		},
		OccurredAt: at,
	}
}
