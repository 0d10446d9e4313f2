package postgres

import (
	"database/sql"

	"github.com/sirupsen/logrus"
)

// RunMigrations executes database migrations for a service's schema.
func RunMigrations(db *sql.DB, service string) error {
	migrations := getServiceMigrations(service)
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	logrus.WithField("service", service).Info("Migrations completed")
	return nil
}

func getServiceMigrations(service string) []string {
	switch service {
	case "users":
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL UNIQUE,
				roles TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			)`,
		}
	case "jobs":
		return []string{
			`CREATE TABLE IF NOT EXISTS jobs (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				company VARCHAR(255) NOT NULL,
				type VARCHAR(100) NOT NULL DEFAULT '',
				location VARCHAR(255) NOT NULL DEFAULT '',
				time TIMESTAMP NOT NULL DEFAULT NOW(),
				status VARCHAR(50) NOT NULL DEFAULT 'new',
				url TEXT NOT NULL UNIQUE,
				website VARCHAR(255) NOT NULL DEFAULT ''
			)`,
		}
	case "userjob":
		// Replica tables are keyed by the upstream entity id; the userjob
		// service never generates those ids itself. user_jobs references the
		// replicas and is cascade-deleted by the replicator, not by FKs, so
		// the cascade stays in the same transaction as the replica delete.
		return []string{
			`CREATE TABLE IF NOT EXISTS users_cache (
				id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL,
				roles TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS jobs_cache (
				id BIGINT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				company VARCHAR(255) NOT NULL,
				type VARCHAR(100) NOT NULL DEFAULT '',
				location VARCHAR(255) NOT NULL DEFAULT '',
				time TIMESTAMP NOT NULL DEFAULT NOW(),
				status VARCHAR(50) NOT NULL DEFAULT 'new',
				url TEXT NOT NULL,
				website VARCHAR(255) NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS user_jobs (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL,
				job_id BIGINT NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'new',
				status_changed_at TIMESTAMP NOT NULL DEFAULT NOW(),
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
				UNIQUE(user_id, job_id)
			)`,
		}
	default:
		return nil
	}
}
