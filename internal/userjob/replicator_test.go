package userjob

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/TriByteGenius/CareerCompass/pkg/events"

	"github.com/DATA-DOG/go-sqlmock"
	amqp "github.com/rabbitmq/amqp091-go"
)

func userDelivery(t *testing.T, ev events.UserEvent) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return amqp.Delivery{Body: body, CorrelationId: "corr-test", RoutingKey: "user.test"}
}

func jobDelivery(t *testing.T, ev events.JobEvent) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return amqp.Delivery{Body: body, CorrelationId: "corr-test", RoutingKey: "job.test"}
}

func expectJobUpsert(mock sqlmock.Sqlmock, ev events.JobEvent) {
	mock.ExpectExec("INSERT INTO jobs_cache").
		WithArgs(ev.EntityID, ev.Name, ev.Company, ev.Type, ev.Location, sqlmock.AnyArg(), ev.Status, ev.URL, ev.Website).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestHandleJobEvent_CreatedUpsertsReplica(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   7,
		EventType:  events.TypeCreated,
		Name:       "Backend Engineer",
		Company:    "Acme",
		Type:       "full-time",
		Location:   "Remote",
		Website:    "acme",
		URL:        "https://jobs.acme.dev/7",
		Status:     "new",
		Timestamp:  time.Now(),
	}

	expectJobUpsert(mock, ev)

	if err := r.HandleJobEvent(jobDelivery(t, ev)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleJobEvent_IdempotentReplay(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   7,
		EventType:  events.TypeCreated,
		Name:       "Backend Engineer",
		Company:    "Acme",
		URL:        "https://jobs.acme.dev/7",
		Status:     "new",
		Timestamp:  time.Now(),
	}

	// The same envelope replayed twice issues the same upsert twice: one
	// replica row, final payload fields, no duplicate-key failure.
	expectJobUpsert(mock, ev)
	expectJobUpsert(mock, ev)

	delivery := jobDelivery(t, ev)
	if err := r.HandleJobEvent(delivery); err != nil {
		t.Fatalf("first apply: expected no error, got %v", err)
	}
	if err := r.HandleJobEvent(delivery); err != nil {
		t.Fatalf("second apply: expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleUserEvent_CreateThenUpdateConverges(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	created := events.UserEvent{
		EntityKind: events.KindUser,
		EntityID:   5,
		EventType:  events.TypeCreated,
		Username:   "jane",
		Email:      "a@x.com",
		Roles:      []string{"ROLE_USER"},
		Timestamp:  time.Now(),
	}
	updated := created
	updated.EventType = events.TypeUpdated
	updated.Email = "b@x.com"

	mock.ExpectExec("INSERT INTO users_cache").
		WithArgs(created.EntityID, created.Username, "a@x.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users_cache").
		WithArgs(updated.EntityID, updated.Username, "b@x.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.HandleUserEvent(userDelivery(t, created)); err != nil {
		t.Fatalf("created: expected no error, got %v", err)
	}
	if err := r.HandleUserEvent(userDelivery(t, updated)); err != nil {
		t.Fatalf("updated: expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleJobEvent_DeletedCascadesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   7,
		EventType:  events.TypeDeleted,
		Timestamp:  time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs_cache").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_jobs").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := r.HandleJobEvent(jobDelivery(t, ev)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleUserEvent_DeletedCascadesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.UserEvent{
		EntityKind: events.KindUser,
		EntityID:   3,
		EventType:  events.TypeDeleted,
		Timestamp:  time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users_cache").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_jobs").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := r.HandleUserEvent(userDelivery(t, ev)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleJobEvent_CascadeRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   7,
		EventType:  events.TypeDeleted,
		Timestamp:  time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs_cache").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_jobs").
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := r.HandleJobEvent(jobDelivery(t, ev)); err == nil {
		t.Fatal("expected error when cascade fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestHandleJobEvent_UnknownEventTypeIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   7,
		EventType:  events.EventType("RENAMED"),
		Timestamp:  time.Now(),
	}

	// No DB expectations: the store must be untouched and no error raised.
	if err := r.HandleJobEvent(jobDelivery(t, ev)); err != nil {
		t.Fatalf("expected unknown type to be discarded, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestHandleUserEvent_InvalidJSON(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	delivery := amqp.Delivery{Body: []byte("{invalid json"), CorrelationId: "corr-bad"}
	if err := r.HandleUserEvent(delivery); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestHandleJobEvent_UpsertFailurePropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReplicator(db)

	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   9,
		EventType:  events.TypeUpdated,
		Name:       "Data Engineer",
		Company:    "Initech",
		URL:        "https://jobs.initech.dev/9",
		Timestamp:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO jobs_cache").
		WillReturnError(errors.New("value too long for type"))

	if err := r.HandleJobEvent(jobDelivery(t, ev)); err == nil {
		t.Fatal("expected error when upsert fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
