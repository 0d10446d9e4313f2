package models

import (
	"fmt"
	"time"
)

// Valid statuses a favorite can be in. Exactly one applies at any time.
const (
	StatusNew       = "new"
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusOffer     = "offer"
	StatusRejected  = "rejected"
)

var validStatuses = []string{StatusNew, StatusApplied, StatusInterview, StatusOffer, StatusRejected}

// ValidateStatus rejects status values outside the fixed enumeration.
func ValidateStatus(status string) error {
	for _, s := range validStatuses {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("invalid job status %q, valid statuses are: new, applied, interview, offer, rejected", status)
}

// UserJob is a favorite owned by the userjob service. UserID and JobID
// reference the local replica tables, never the owning services' rows.
type UserJob struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	JobID           int64     `json:"job_id" db:"job_id"`
	Status          string    `json:"status" db:"status"`
	StatusChangedAt time.Time `json:"status_changed_at" db:"status_changed_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// FavoriteResponse is a favorite joined with its job replica for API reads.
type FavoriteResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Job             Job       `json:"job"`
	Status          string    `json:"status"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}
