package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		name     string
		kind     EntityKind
		et       EventType
		expected string
	}{
		{"user created", KindUser, TypeCreated, "user.created"},
		{"user updated", KindUser, TypeUpdated, "user.updated"},
		{"user deleted", KindUser, TypeDeleted, "user.deleted"},
		{"job created", KindJob, TypeCreated, "job.created"},
		{"job updated", KindJob, TypeUpdated, "job.updated"},
		{"job deleted", KindJob, TypeDeleted, "job.deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := RoutingKey(tt.kind, tt.et)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, key)
			}
		})
	}
}

func TestRoutingKey_Unknown(t *testing.T) {
	if _, err := RoutingKey(KindJob, EventType("RENAMED")); err == nil {
		t.Error("expected error for unknown event type")
	}
	if _, err := RoutingKey(EntityKind("Invoice"), TypeCreated); err == nil {
		t.Error("expected error for unknown entity kind")
	}
}

func TestJobEventWireShape(t *testing.T) {
	ev := JobEvent{
		EntityKind: KindJob,
		EntityID:   7,
		EventType:  TypeCreated,
		Name:       "Backend Engineer",
		Company:    "Acme",
		URL:        "https://jobs.acme.dev/7",
		Timestamp:  time.Now(),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal JobEvent: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("failed to unmarshal wire shape: %v", err)
	}

	// Field names are the contract with the other services and the scraper.
	for _, field := range []string{"entityKind", "entityId", "eventType", "name", "company", "url", "timestamp"} {
		if _, ok := wire[field]; !ok {
			t.Errorf("wire shape missing field %q", field)
		}
	}
	if wire["entityKind"] != "Job" {
		t.Errorf("expected entityKind Job, got %v", wire["entityKind"])
	}
	if wire["eventType"] != "CREATED" {
		t.Errorf("expected eventType CREATED, got %v", wire["eventType"])
	}
}

func TestDecodeUserEvent(t *testing.T) {
	body := []byte(`{"entityKind":"User","entityId":5,"eventType":"UPDATED","username":"jane","email":"b@x.com","roles":["ROLE_USER"],"timestamp":"2025-01-02T03:04:05Z"}`)

	ev, err := DecodeUserEvent(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EntityID != 5 {
		t.Errorf("expected entityId 5, got %d", ev.EntityID)
	}
	if ev.Email != "b@x.com" {
		t.Errorf("expected email b@x.com, got %s", ev.Email)
	}
	if len(ev.Roles) != 1 || ev.Roles[0] != "ROLE_USER" {
		t.Errorf("unexpected roles: %v", ev.Roles)
	}
}

func TestDecodeUserEvent_Invalid(t *testing.T) {
	if _, err := DecodeUserEvent([]byte(`{invalid json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := DecodeUserEvent([]byte(`{"eventType":"CREATED"}`)); err == nil {
		t.Error("expected error for missing entityId")
	}
	if _, err := DecodeUserEvent([]byte(`{"entityKind":"Job","entityId":1,"eventType":"CREATED"}`)); err == nil {
		t.Error("expected error for wrong entity kind")
	}
}

func TestDecodeJobEvent_Invalid(t *testing.T) {
	if _, err := DecodeJobEvent([]byte(`{"entityKind":"User","entityId":1,"eventType":"CREATED"}`)); err == nil {
		t.Error("expected error for wrong entity kind")
	}
	if _, err := DecodeJobEvent([]byte(`{"entityKind":"Job","eventType":"DELETED"}`)); err == nil {
		t.Error("expected error for missing entityId")
	}
}
