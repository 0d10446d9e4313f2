package userjob

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/TriByteGenius/CareerCompass/pkg/middleware"
	"github.com/TriByteGenius/CareerCompass/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// FavoriteHandler handles the favorites API. All writes check the replica
// tables first: a favorite must never reference a user or job this service
// does not currently know about.
type FavoriteHandler struct {
	DB *sql.DB
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(db *sql.DB) *FavoriteHandler {
	return &FavoriteHandler{DB: db}
}

// ToggleFavorite godoc
// @Summary      Toggle a job as favorite
// @Description  Adds the job to the user's favorites, or removes it if already present
// @Tags         favorites
// @Produce      json
// @Param        jobId      path    int     true  "Job ID"
// @Param        X-User-ID  header  string  true  "Authenticated user ID"
// @Success      200  {object}  map[string]string
// @Success      201  {object}  models.FavoriteResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/favorites/{jobId}/toggle [post]
func (h *FavoriteHandler) ToggleFavorite(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	userID := middleware.GetUserID(c)

	jobID, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"user_id":        userID,
		"job_id":         jobID,
	})

	username, ok := h.requireUser(c, userID)
	if !ok {
		return
	}
	job, ok := h.requireJob(c, jobID)
	if !ok {
		return
	}

	var existingID int64
	err = h.DB.QueryRow(
		"SELECT id FROM user_jobs WHERE user_id = $1 AND job_id = $2",
		userID, jobID,
	).Scan(&existingID)

	switch {
	case err == nil:
		// Already a favorite — remove it
		if _, err := h.DB.Exec("DELETE FROM user_jobs WHERE id = $1", existingID); err != nil {
			log.WithError(err).Error("Failed to remove favorite")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove favorite"})
			return
		}
		log.Info("Job removed from favorites")
		c.JSON(http.StatusOK, gin.H{"message": "Job removed from favorites"})

	case err == sql.ErrNoRows:
		now := time.Now()
		var id int64
		err := h.DB.QueryRow(
			`INSERT INTO user_jobs (user_id, job_id, status, status_changed_at)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			userID, jobID, models.StatusNew, now,
		).Scan(&id)
		if err != nil {
			log.WithError(err).Error("Failed to add favorite")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
			return
		}
		log.Info("Job added to favorites")
		c.JSON(http.StatusCreated, models.FavoriteResponse{
			ID:              id,
			UserID:          userID,
			Username:        username,
			Job:             job,
			Status:          models.StatusNew,
			StatusChangedAt: now,
		})

	default:
		log.WithError(err).Error("Failed to look up favorite")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up favorite"})
	}
}

// UpdateStatus godoc
// @Summary      Update the status of a favorite
// @Description  Sets the application status of a favorited job
// @Tags         favorites
// @Produce      json
// @Param        jobId      path    int     true  "Job ID"
// @Param        status     query   string  true  "New status"  Enums(new, applied, interview, offer, rejected)
// @Param        X-User-ID  header  string  true  "Authenticated user ID"
// @Success      200  {object}  models.FavoriteResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/favorites/{jobId}/status [put]
func (h *FavoriteHandler) UpdateStatus(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	userID := middleware.GetUserID(c)

	jobID, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	// Validate before touching any state.
	status := c.Query("status")
	if err := models.ValidateStatus(status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"user_id":        userID,
		"job_id":         jobID,
		"status":         status,
	})

	username, ok := h.requireUser(c, userID)
	if !ok {
		return
	}
	job, ok := h.requireJob(c, jobID)
	if !ok {
		return
	}

	now := time.Now()
	var id int64
	err = h.DB.QueryRow(
		`UPDATE user_jobs SET status = $1, status_changed_at = $2, updated_at = $2
		 WHERE user_id = $3 AND job_id = $4 RETURNING id`,
		status, now, userID, jobID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found in user's favorites"})
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to update favorite status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	log.Info("Favorite status updated")
	c.JSON(http.StatusOK, models.FavoriteResponse{
		ID:              id,
		UserID:          userID,
		Username:        username,
		Job:             job,
		Status:          status,
		StatusChangedAt: now,
	})
}

// ListFavorites godoc
// @Summary      List the user's favorite jobs
// @Tags         favorites
// @Produce      json
// @Param        X-User-ID  header  string  true  "Authenticated user ID"
// @Success      200  {array}   models.FavoriteResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/favorites [get]
func (h *FavoriteHandler) ListFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)

	username, ok := h.requireUser(c, userID)
	if !ok {
		return
	}

	h.listFavorites(c, userID, username, "")
}

// ListByStatus godoc
// @Summary      List the user's favorite jobs filtered by status
// @Tags         favorites
// @Produce      json
// @Param        status     path    string  true  "Status"  Enums(new, applied, interview, offer, rejected)
// @Param        X-User-ID  header  string  true  "Authenticated user ID"
// @Success      200  {array}   models.FavoriteResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/favorites/status/{status} [get]
func (h *FavoriteHandler) ListByStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)

	status := c.Param("status")
	if err := models.ValidateStatus(status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username, ok := h.requireUser(c, userID)
	if !ok {
		return
	}

	h.listFavorites(c, userID, username, status)
}

func (h *FavoriteHandler) listFavorites(c *gin.Context, userID int64, username, status string) {
	query := `SELECT uj.id, uj.status, uj.status_changed_at,
	                 j.id, j.name, j.company, j.type, j.location, j.time, j.status, j.url, j.website
	          FROM user_jobs uj
	          JOIN jobs_cache j ON j.id = uj.job_id
	          WHERE uj.user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += " AND uj.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY uj.status_changed_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list favorites")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list favorites"})
		return
	}
	defer rows.Close()

	favorites := []models.FavoriteResponse{}
	for rows.Next() {
		var fav models.FavoriteResponse
		fav.UserID = userID
		fav.Username = username
		if err := rows.Scan(
			&fav.ID, &fav.Status, &fav.StatusChangedAt,
			&fav.Job.ID, &fav.Job.Name, &fav.Job.Company, &fav.Job.Type, &fav.Job.Location,
			&fav.Job.Time, &fav.Job.Status, &fav.Job.URL, &fav.Job.Website,
		); err != nil {
			continue
		}
		favorites = append(favorites, fav)
	}

	c.JSON(http.StatusOK, favorites)
}

// requireUser loads the user replica or responds 404. Replicas may lag the
// owning service, so an unknown id here is a client-visible not-found even if
// the user exists upstream.
func (h *FavoriteHandler) requireUser(c *gin.Context, userID int64) (string, bool) {
	var username string
	var roles []string
	err := h.DB.QueryRow(
		"SELECT username, roles FROM users_cache WHERE id = $1", userID,
	).Scan(&username, pq.Array(&roles))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return "", false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return "", false
	}
	return username, true
}

func (h *FavoriteHandler) requireJob(c *gin.Context, jobID int64) (models.Job, bool) {
	var job models.Job
	err := h.DB.QueryRow(
		"SELECT id, name, company, type, location, time, status, url, website FROM jobs_cache WHERE id = $1",
		jobID,
	).Scan(&job.ID, &job.Name, &job.Company, &job.Type, &job.Location, &job.Time, &job.Status, &job.URL, &job.Website)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return models.Job{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job"})
		return models.Job{}, false
	}
	return job, true
}
