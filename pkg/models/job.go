package models

import "time"

// Job represents a job posting owned by the job service. URL is the natural
// key: rediscovering the same posting must not create a second row.
type Job struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name" binding:"required"`
	Company  string    `json:"company" db:"company" binding:"required"`
	Type     string    `json:"type" db:"type"`
	Location string    `json:"location" db:"location"`
	Time     time.Time `json:"time" db:"time"`
	Status   string    `json:"status" db:"status"`
	URL      string    `json:"url" db:"url" binding:"required"`
	Website  string    `json:"website" db:"website"`
}

// CreateJobRequest is the request body for creating a job.
type CreateJobRequest struct {
	Name     string `json:"name" binding:"required" example:"Backend Engineer"`
	Company  string `json:"company" binding:"required" example:"Acme"`
	Type     string `json:"type" example:"full-time"`
	Location string `json:"location" example:"Remote"`
	Status   string `json:"status" example:"new"`
	URL      string `json:"url" binding:"required" example:"https://jobs.acme.dev/123"`
	Website  string `json:"website" example:"acme"`
}

// UpdateJobRequest is the request body for updating a job.
type UpdateJobRequest struct {
	Name     string `json:"name,omitempty"`
	Company  string `json:"company,omitempty"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`
	URL      string `json:"url,omitempty"`
	Website  string `json:"website,omitempty"`
}

// SearchRequest triggers the external scraper to look for new postings.
type SearchRequest struct {
	Keyword  string `json:"keyword" binding:"required" example:"golang"`
	Location string `json:"location,omitempty" example:"Berlin"`
	Website  string `json:"website,omitempty" example:"linkedin"`
}
