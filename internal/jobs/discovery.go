package jobs

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/TriByteGenius/CareerCompass/pkg/events"
	"github.com/TriByteGenius/CareerCompass/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Discovery consumes job.created events proposed by the external scraper.
// Scraper events carry no entity id; this service assigns one when it
// materializes the row, then republishes the event so replicas receive it
// with the authoritative id. The URL check makes rediscovery (and the
// republished event arriving back on this queue) a no-op, which also
// terminates the republish loop.
type Discovery struct {
	DB        *sql.DB
	Publisher EventPublisher
}

// NewDiscovery creates a discovery consumer.
func NewDiscovery(db *sql.DB, pub EventPublisher) *Discovery {
	return &Discovery{DB: db, Publisher: pub}
}

// HandleMessage processes one scraper-proposed job event.
func (d *Discovery) HandleMessage(delivery amqp.Delivery) error {
	log := logrus.WithFields(logrus.Fields{
		"queue":          "job-discovery",
		"correlation_id": delivery.CorrelationId,
	})

	var ev events.JobEvent
	if err := json.Unmarshal(delivery.Body, &ev); err != nil {
		log.WithError(err).Error("Failed to unmarshal discovery event")
		return err
	}

	if ev.EventType != events.TypeCreated {
		log.WithField("event_type", ev.EventType).Warn("Ignoring non-created discovery event")
		return nil
	}
	if ev.URL == "" {
		log.Error("Discovery event missing url")
		return nil
	}

	var exists bool
	if err := d.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM jobs WHERE url = $1)", ev.URL).Scan(&exists); err != nil {
		log.WithError(err).Error("Failed to check job url")
		return err
	}
	if exists {
		log.WithField("url", ev.URL).Info("Job already exists, skipping")
		return nil
	}

	job := models.Job{
		Name:     ev.Name,
		Company:  ev.Company,
		Type:     ev.Type,
		Location: ev.Location,
		Time:     ev.Timestamp,
		Status:   ev.Status,
		URL:      ev.URL,
		Website:  ev.Website,
	}
	if job.Status == "" {
		job.Status = models.StatusNew
	}
	if job.Time.IsZero() {
		job.Time = time.Now()
	}

	err := d.DB.QueryRow(
		`INSERT INTO jobs (name, company, type, location, time, status, url, website)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		job.Name, job.Company, job.Type, job.Location, job.Time, job.Status, job.URL, job.Website,
	).Scan(&job.ID)
	if err != nil {
		log.WithError(err).Error("Failed to create discovered job")
		return err
	}

	// Republish with the assigned id so downstream replicas can key on it.
	publishJobEvent(d.Publisher, job, events.TypeCreated, delivery.CorrelationId)

	log.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"company": job.Company,
	}).Info("Job created from discovery event")
	return nil
}
