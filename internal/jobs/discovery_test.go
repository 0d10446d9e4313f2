package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/TriByteGenius/CareerCompass/pkg/events"

	"github.com/DATA-DOG/go-sqlmock"
	amqp "github.com/rabbitmq/amqp091-go"
)

func discoveryDelivery(t *testing.T, ev events.JobEvent) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return amqp.Delivery{Body: body, CorrelationId: "corr-disc", RoutingKey: "job.created"}
}

func TestDiscovery_CreatesAndRepublishes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("https://boards.example.com/42").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs("Platform Engineer", "Initech", "full-time", "Berlin", sqlmock.AnyArg(), "new", "https://boards.example.com/42", "example").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	pub := &mockPublisher{}
	d := NewDiscovery(db, pub)

	// Scraper events have no entityId yet.
	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EventType:  events.TypeCreated,
		Name:       "Platform Engineer",
		Company:    "Initech",
		Type:       "full-time",
		Location:   "Berlin",
		Website:    "example",
		URL:        "https://boards.example.com/42",
		Timestamp:  time.Now(),
	}

	if err := d.HandleMessage(discoveryDelivery(t, ev)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 republished event, got %d", len(pub.published))
	}
	if pub.published[0].RoutingKey != events.KeyJobCreated {
		t.Errorf("expected routing key %s, got %s", events.KeyJobCreated, pub.published[0].RoutingKey)
	}

	var out events.JobEvent
	if err := json.Unmarshal(pub.published[0].Body, &out); err != nil {
		t.Fatalf("failed to unmarshal republished event: %v", err)
	}
	if out.EntityID != 42 {
		t.Errorf("expected republished entityId 42, got %d", out.EntityID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestDiscovery_DuplicateURLSkipped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("http://x/1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pub := &mockPublisher{}
	d := NewDiscovery(db, pub)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EventType:  events.TypeCreated,
		Name:       "Dup Job",
		Company:    "Acme",
		URL:        "http://x/1",
		Timestamp:  time.Now(),
	}

	// Rediscovery of a known posting acks without creating or publishing.
	if err := d.HandleMessage(discoveryDelivery(t, ev)); err != nil {
		t.Fatalf("expected no error for duplicate, got %v", err)
	}

	if len(pub.published) != 0 {
		t.Errorf("expected no republished events, got %d", len(pub.published))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestDiscovery_NonCreatedEventIgnored(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	pub := &mockPublisher{}
	d := NewDiscovery(db, pub)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EventType:  events.TypeUpdated,
		URL:        "http://x/1",
		Timestamp:  time.Now(),
	}

	if err := d.HandleMessage(discoveryDelivery(t, ev)); err != nil {
		t.Fatalf("expected non-created event to be ignored, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestDiscovery_InvalidJSON(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	pub := &mockPublisher{}
	d := NewDiscovery(db, pub)

	delivery := amqp.Delivery{Body: []byte("{invalid json"), CorrelationId: "corr-bad"}
	if err := d.HandleMessage(delivery); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestDiscovery_MissingURLIgnored(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	pub := &mockPublisher{}
	d := NewDiscovery(db, pub)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EventType:  events.TypeCreated,
		Name:       "No URL",
		Timestamp:  time.Now(),
	}

	if err := d.HandleMessage(discoveryDelivery(t, ev)); err != nil {
		t.Fatalf("expected event without url to be dropped, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}
