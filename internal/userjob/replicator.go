package userjob

import (
	"database/sql"

	"github.com/TriByteGenius/CareerCompass/pkg/events"

	"github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Replicator applies user and job events to this service's local read
// replicas. It is the only writer of users_cache and jobs_cache; business
// logic here only ever reads them.
//
// Created and Updated share one branch: the payload is a full snapshot, so
// applying it is an upsert keyed by the upstream id and replaying the same
// envelope any number of times converges on the same row. Deletes remove the
// replica and cascade to user_jobs in the same transaction. There is no
// version field: a stale Updated arriving after a Deleted resurrects the row.
type Replicator struct {
	DB *sql.DB
}

// NewReplicator creates a replicator over the service's database.
func NewReplicator(db *sql.DB) *Replicator {
	return &Replicator{DB: db}
}

// HandleUserEvent processes one user envelope off the user-events queue.
func (r *Replicator) HandleUserEvent(delivery amqp.Delivery) error {
	log := logrus.WithFields(logrus.Fields{
		"queue":          "user-events",
		"correlation_id": delivery.CorrelationId,
	})

	ev, err := events.DecodeUserEvent(delivery.Body)
	if err != nil {
		log.WithError(err).Error("Failed to decode user event")
		return err
	}

	log = log.WithFields(logrus.Fields{"event_type": ev.EventType, "user_id": ev.EntityID})

	switch ev.EventType {
	case events.TypeCreated, events.TypeUpdated:
		_, err := r.DB.Exec(
			`INSERT INTO users_cache (id, username, email, roles, updated_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT (id) DO UPDATE
			 SET username = EXCLUDED.username,
			     email = EXCLUDED.email,
			     roles = EXCLUDED.roles,
			     updated_at = NOW()`,
			ev.EntityID, ev.Username, ev.Email, pq.Array(ev.Roles),
		)
		if err != nil {
			log.WithError(err).Error("Failed to upsert user replica")
			return err
		}
		log.Info("User replica updated")
		return nil

	case events.TypeDeleted:
		if err := r.deleteUserReplica(ev.EntityID); err != nil {
			log.WithError(err).Error("Failed to delete user replica")
			return err
		}
		log.Info("User replica and dependent favorites deleted")
		return nil

	default:
		// Unknown event types are discarded, not dead-lettered.
		log.Warn("Unknown user event type, discarding")
		return nil
	}
}

// HandleJobEvent processes one job envelope off the job-events queue.
func (r *Replicator) HandleJobEvent(delivery amqp.Delivery) error {
	log := logrus.WithFields(logrus.Fields{
		"queue":          "job-events",
		"correlation_id": delivery.CorrelationId,
	})

	ev, err := events.DecodeJobEvent(delivery.Body)
	if err != nil {
		log.WithError(err).Error("Failed to decode job event")
		return err
	}

	log = log.WithFields(logrus.Fields{"event_type": ev.EventType, "job_id": ev.EntityID})

	switch ev.EventType {
	case events.TypeCreated, events.TypeUpdated:
		_, err := r.DB.Exec(
			`INSERT INTO jobs_cache (id, name, company, type, location, time, status, url, website)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE
			 SET name = EXCLUDED.name,
			     company = EXCLUDED.company,
			     type = EXCLUDED.type,
			     location = EXCLUDED.location,
			     time = EXCLUDED.time,
			     status = EXCLUDED.status,
			     url = EXCLUDED.url,
			     website = EXCLUDED.website`,
			ev.EntityID, ev.Name, ev.Company, ev.Type, ev.Location, ev.Timestamp, ev.Status, ev.URL, ev.Website,
		)
		if err != nil {
			log.WithError(err).Error("Failed to upsert job replica")
			return err
		}
		log.Info("Job replica updated")
		return nil

	case events.TypeDeleted:
		if err := r.deleteJobReplica(ev.EntityID); err != nil {
			log.WithError(err).Error("Failed to delete job replica")
			return err
		}
		log.Info("Job replica and dependent favorites deleted")
		return nil

	default:
		log.Warn("Unknown job event type, discarding")
		return nil
	}
}

// deleteUserReplica removes the replica row and every favorite that
// references it in one transaction, so a partial cascade is never visible.
func (r *Replicator) deleteUserReplica(userID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM users_cache WHERE id = $1", userID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM user_jobs WHERE user_id = $1", userID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Replicator) deleteJobReplica(jobID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM jobs_cache WHERE id = $1", jobID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM user_jobs WHERE job_id = $1", jobID); err != nil {
		return err
	}
	return tx.Commit()
}
