package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityKind identifies which aggregate an event describes.
type EntityKind string

const (
	KindUser EntityKind = "User"
	KindJob  EntityKind = "Job"
)

// EventType represents the lifecycle transition carried by an event.
type EventType string

const (
	TypeCreated EventType = "CREATED"
	TypeUpdated EventType = "UPDATED"
	TypeDeleted EventType = "DELETED"
)

// Routing keys published to the topic exchanges. Consumers bind with
// "user.*" / "job.*" wildcards rather than enumerating these.
const (
	KeyUserCreated = "user.created"
	KeyUserUpdated = "user.updated"
	KeyUserDeleted = "user.deleted"

	KeyJobCreated = "job.created"
	KeyJobUpdated = "job.updated"
	KeyJobDeleted = "job.deleted"
)

// RoutingKey maps an (entity kind, event type) pair to its routing key.
func RoutingKey(kind EntityKind, et EventType) (string, error) {
	switch kind {
	case KindUser:
		switch et {
		case TypeCreated:
			return KeyUserCreated, nil
		case TypeUpdated:
			return KeyUserUpdated, nil
		case TypeDeleted:
			return KeyUserDeleted, nil
		}
	case KindJob:
		switch et {
		case TypeCreated:
			return KeyJobCreated, nil
		case TypeUpdated:
			return KeyJobUpdated, nil
		case TypeDeleted:
			return KeyJobDeleted, nil
		}
	}
	return "", fmt.Errorf("no routing key for kind=%q type=%q", kind, et)
}

// UserEvent is the envelope for user lifecycle events. The payload is a full
// snapshot of the user's replicable fields, never a diff.
type UserEvent struct {
	EntityKind EntityKind `json:"entityKind"`
	EntityID   int64      `json:"entityId"`
	EventType  EventType  `json:"eventType"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Roles      []string   `json:"roles"`
	Timestamp  time.Time  `json:"timestamp"`
}

// JobEvent is the envelope for job lifecycle events, carrying a full snapshot.
type JobEvent struct {
	EntityKind EntityKind `json:"entityKind"`
	EntityID   int64      `json:"entityId"`
	EventType  EventType  `json:"eventType"`
	Name       string     `json:"name"`
	Company    string     `json:"company"`
	Type       string     `json:"type"`
	Location   string     `json:"location"`
	Website    string     `json:"website"`
	URL        string     `json:"url"`
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
}

// DecodeUserEvent parses and validates a user envelope off the wire.
// The entity id must be present; the event type is validated by the
// replicator so unknown types can be discarded rather than rejected here.
func DecodeUserEvent(body []byte) (UserEvent, error) {
	var ev UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return UserEvent{}, fmt.Errorf("unmarshal user event: %w", err)
	}
	if ev.EntityKind != "" && ev.EntityKind != KindUser {
		return UserEvent{}, fmt.Errorf("unexpected entity kind %q on user queue", ev.EntityKind)
	}
	if ev.EntityID == 0 {
		return UserEvent{}, fmt.Errorf("user event missing entityId")
	}
	return ev, nil
}

// DecodeJobEvent parses and validates a job envelope off the wire.
func DecodeJobEvent(body []byte) (JobEvent, error) {
	var ev JobEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return JobEvent{}, fmt.Errorf("unmarshal job event: %w", err)
	}
	if ev.EntityKind != "" && ev.EntityKind != KindJob {
		return JobEvent{}, fmt.Errorf("unexpected entity kind %q on job queue", ev.EntityKind)
	}
	if ev.EntityID == 0 {
		return JobEvent{}, fmt.Errorf("job event missing entityId")
	}
	return ev, nil
}
