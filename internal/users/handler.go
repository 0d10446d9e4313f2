package users

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/TriByteGenius/CareerCompass/pkg/events"
	"github.com/TriByteGenius/CareerCompass/pkg/middleware"
	"github.com/TriByteGenius/CareerCompass/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(routingKey string, body []byte, correlationID string) error
}

// UserHandler handles user-related HTTP requests. Every committed write is
// followed by a best-effort event publish: a publish failure is logged and
// swallowed, the user-facing operation still reports success.
type UserHandler struct {
	DB        *sql.DB
	Publisher EventPublisher
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *sql.DB, pub EventPublisher) *UserHandler {
	return &UserHandler{DB: db, Publisher: pub}
}

func (h *UserHandler) publishUserEvent(user models.User, et events.EventType, correlationID string) {
	ev := events.UserEvent{
		EntityKind: events.KindUser,
		EntityID:   user.ID,
		EventType:  et,
		Username:   user.Username,
		Email:      user.Email,
		Roles:      user.Roles,
		Timestamp:  time.Now(),
	}

	key, err := events.RoutingKey(events.KindUser, et)
	if err != nil {
		logrus.WithError(err).Error("Failed to resolve routing key")
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).
			Error("Failed to marshal user event")
		return
	}

	if err := h.Publisher.Publish(key, body, correlationID); err != nil {
		// Local write already committed; replication catches up on the
		// next update to this user.
		logrus.WithError(err).WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"user_id":        user.ID,
			"routing_key":    key,
		}).Error("Failed to publish user event")
	}
}

// CreateUser godoc
// @Summary      Create a new user
// @Description  Creates a user and publishes a user.created event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateUserRequest  true  "Create user request"
// @Success      201      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Roles) == 0 {
		req.Roles = []string{"ROLE_USER"}
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Roles:     req.Roles,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := h.DB.QueryRow(
		`INSERT INTO users (username, email, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		user.Username, user.Email, pq.Array(user.Roles), user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.publishUserEvent(user, events.TypeCreated, correlationID)

	logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"user_id":        user.ID,
		"email":          user.Email,
	}).Info("User created")
	c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary      Update an existing user
// @Description  Updates a user and publishes a user.updated event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "User ID"
// @Param        request  body      models.UpdateUserRequest  true  "Update user request"
// @Success      200      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err = h.DB.QueryRow(
		"SELECT id, username, email, roles, created_at, updated_at FROM users WHERE id = $1", userID,
	).Scan(&user.ID, &user.Username, &user.Email, pq.Array(&user.Roles), &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if len(req.Roles) > 0 {
		user.Roles = req.Roles
	}
	user.UpdatedAt = time.Now()

	_, err = h.DB.Exec(
		"UPDATE users SET username = $1, email = $2, roles = $3, updated_at = $4 WHERE id = $5",
		user.Username, user.Email, pq.Array(user.Roles), user.UpdatedAt, user.ID,
	)
	if err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	h.publishUserEvent(user, events.TypeUpdated, correlationID)

	logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"user_id":        user.ID,
	}).Info("User updated")
	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Deletes a user and publishes a user.deleted event
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var user models.User
	err = h.DB.QueryRow(
		"SELECT id, username, email, roles, created_at, updated_at FROM users WHERE id = $1", userID,
	).Scan(&user.ID, &user.Username, &user.Email, pq.Array(&user.Roles), &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	if _, err := h.DB.Exec("DELETE FROM users WHERE id = $1", userID); err != nil {
		logrus.WithError(err).WithField("correlation_id", correlationID).Error("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}

	h.publishUserEvent(user, events.TypeDeleted, correlationID)

	logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"user_id":        userID,
	}).Info("User deleted")
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// GetUser godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var user models.User
	err = h.DB.QueryRow(
		"SELECT id, username, email, roles, created_at, updated_at FROM users WHERE id = $1", userID,
	).Scan(&user.ID, &user.Username, &user.Email, pq.Array(&user.Roles), &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.User
// @Failure      500  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, username, email, roles, created_at, updated_at FROM users ORDER BY created_at DESC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch users"})
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, pq.Array(&u.Roles), &u.CreatedAt, &u.UpdatedAt); err != nil {
			continue
		}
		users = append(users, u)
	}

	c.JSON(http.StatusOK, users)
}
