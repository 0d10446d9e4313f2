package jobs

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TriByteGenius/CareerCompass/pkg/events"
	"github.com/TriByteGenius/CareerCompass/pkg/middleware"
	"github.com/TriByteGenius/CareerCompass/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(routingKey string, body []byte, correlationID string) error
}

// JobHandler handles job-related HTTP requests. Writes publish job.* events
// after the local commit; publish failures are logged and swallowed.
type JobHandler struct {
	DB         *sql.DB
	Publisher  EventPublisher
	ScraperURL string
	HTTPClient *http.Client
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(db *sql.DB, pub EventPublisher, scraperURL string) *JobHandler {
	return &JobHandler{
		DB:         db,
		Publisher:  pub,
		ScraperURL: scraperURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func publishJobEvent(pub EventPublisher, job models.Job, et events.EventType, correlationID string) {
	ev := events.JobEvent{
		EntityKind: events.KindJob,
		EntityID:   job.ID,
		EventType:  et,
		Name:       job.Name,
		Company:    job.Company,
		Type:       job.Type,
		Location:   job.Location,
		Website:    job.Website,
		URL:        job.URL,
		Status:     job.Status,
		Timestamp:  time.Now(),
	}

	key, err := events.RoutingKey(events.KindJob, et)
	if err != nil {
		logrus.WithError(err).Error("Failed to resolve routing key")
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).
			Error("Failed to marshal job event")
		return
	}

	if err := pub.Publish(key, body, correlationID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"job_id":         job.ID,
			"routing_key":    key,
		}).Error("Failed to publish job event")
	}
}

func (h *JobHandler) urlExists(url string) (bool, error) {
	var exists bool
	err := h.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM jobs WHERE url = $1)", url).Scan(&exists)
	return exists, err
}

// CreateJob godoc
// @Summary      Create a new job
// @Description  Creates a job and publishes a job.created event. The posting URL is the natural key: a duplicate URL is rejected.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateJobRequest  true  "Create job request"
// @Success      201      {object}  models.Job
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.urlExists(req.URL)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to check job url")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "job with this url already exists"})
		return
	}

	if req.Status == "" {
		req.Status = models.StatusNew
	}

	job := models.Job{
		Name:     req.Name,
		Company:  req.Company,
		Type:     req.Type,
		Location: req.Location,
		Time:     time.Now(),
		Status:   req.Status,
		URL:      req.URL,
		Website:  req.Website,
	}

	err = h.DB.QueryRow(
		`INSERT INTO jobs (name, company, type, location, time, status, url, website)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		job.Name, job.Company, job.Type, job.Location, job.Time, job.Status, job.URL, job.Website,
	).Scan(&job.ID)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to create job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	publishJobEvent(h.Publisher, job, events.TypeCreated, correlationID)

	logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"job_id":         job.ID,
		"company":        job.Company,
	}).Info("Job created")
	c.JSON(http.StatusCreated, job)
}

// UpdateJob godoc
// @Summary      Update an existing job
// @Description  Updates a job and publishes a job.updated event
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id       path      int                      true  "Job ID"
// @Param        request  body      models.UpdateJobRequest  true  "Update job request"
// @Success      200      {object}  models.Job
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /jobs/{id} [put]
func (h *JobHandler) UpdateJob(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	var req models.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != "" {
		if err := models.ValidateStatus(req.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var job models.Job
	err = h.DB.QueryRow(
		"SELECT id, name, company, type, location, time, status, url, website FROM jobs WHERE id = $1", jobID,
	).Scan(&job.ID, &job.Name, &job.Company, &job.Type, &job.Location, &job.Time, &job.Status, &job.URL, &job.Website)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return
	}

	if req.Name != "" {
		job.Name = req.Name
	}
	if req.Company != "" {
		job.Company = req.Company
	}
	if req.Type != "" {
		job.Type = req.Type
	}
	if req.Location != "" {
		job.Location = req.Location
	}
	if req.Status != "" {
		job.Status = req.Status
	}
	if req.URL != "" {
		job.URL = req.URL
	}
	if req.Website != "" {
		job.Website = req.Website
	}

	_, err = h.DB.Exec(
		`UPDATE jobs SET name = $1, company = $2, type = $3, location = $4, status = $5, url = $6, website = $7
		 WHERE id = $8`,
		job.Name, job.Company, job.Type, job.Location, job.Status, job.URL, job.Website, job.ID,
	)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to update job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update job"})
		return
	}

	publishJobEvent(h.Publisher, job, events.TypeUpdated, correlationID)

	logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"job_id":         job.ID,
	}).Info("Job updated")
	c.JSON(http.StatusOK, job)
}

// DeleteJob godoc
// @Summary      Delete a job
// @Description  Deletes a job and publishes a job.deleted event
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	var job models.Job
	err = h.DB.QueryRow(
		"SELECT id, name, company, type, location, time, status, url, website FROM jobs WHERE id = $1", jobID,
	).Scan(&job.ID, &job.Name, &job.Company, &job.Type, &job.Location, &job.Time, &job.Status, &job.URL, &job.Website)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return
	}

	if _, err := h.DB.Exec("DELETE FROM jobs WHERE id = $1", jobID); err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to delete job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete job"})
		return
	}

	publishJobEvent(h.Publisher, job, events.TypeDeleted, correlationID)

	logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"job_id":         jobID,
	}).Info("Job deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

// GetJob godoc
// @Summary      Get a job by ID
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  models.Job
// @Failure      404  {object}  map[string]string
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	var job models.Job
	err = h.DB.QueryRow(
		"SELECT id, name, company, type, location, time, status, url, website FROM jobs WHERE id = $1", jobID,
	).Scan(&job.ID, &job.Name, &job.Company, &job.Type, &job.Location, &job.Time, &job.Status, &job.URL, &job.Website)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobs godoc
// @Summary      List jobs
// @Description  Lists jobs, optionally filtered by keyword, status, website or age in days
// @Tags         jobs
// @Produce      json
// @Param        keyword  query     string  false  "Match against name, company, type or location"
// @Param        status   query     string  false  "Exact status match"
// @Param        website  query     string  false  "Exact website match"
// @Param        days     query     int     false  "Only jobs posted within the last N days"
// @Success      200      {array}   models.Job
// @Failure      500      {object}  map[string]string
// @Router       /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	query := "SELECT id, name, company, type, location, time, status, url, website FROM jobs"
	var conds []string
	var args []interface{}

	if keyword := c.Query("keyword"); keyword != "" {
		args = append(args, "%"+keyword+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%d OR company ILIKE $%d OR type ILIKE $%d OR location ILIKE $%d)", n, n, n, n))
	}
	if status := c.Query("status"); status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if website := c.Query("website"); website != "" {
		args = append(args, website)
		conds = append(conds, fmt.Sprintf("website = $%d", len(args)))
	}
	if days := c.Query("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}
		args = append(args, time.Now().AddDate(0, 0, -n))
		conds = append(conds, fmt.Sprintf("time >= $%d", len(args)))
	}

	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY time DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch jobs"})
		return
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Name, &j.Company, &j.Type, &j.Location, &j.Time, &j.Status, &j.URL, &j.Website); err != nil {
			continue
		}
		jobs = append(jobs, j)
	}

	c.JSON(http.StatusOK, jobs)
}

// TriggerSearch godoc
// @Summary      Trigger the external scraper
// @Description  Fires a search request at the scraper service; discovered jobs arrive later as job.created events
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        request  body      models.SearchRequest  true  "Search request"
// @Success      202      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /jobs/search [post]
func (h *JobHandler) TriggerSearch(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body, _ := json.Marshal(req)

	// Fire and forget: the scraper publishes job.created events when it
	// finds postings, so there is nothing to wait for here.
	go func() {
		resp, err := h.HTTPClient.Post(h.ScraperURL, "application/json", bytes.NewReader(body))
		if err != nil {
			logrus.WithError(err).WithField("correlation_id", correlationID).
				Warn("Failed to trigger scraper search")
			return
		}
		defer resp.Body.Close()
		logrus.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"status":         resp.StatusCode,
		}).Info("Scraper search triggered")
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Search triggered"})
}
