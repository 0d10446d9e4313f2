package jobs

import (
	"github.com/TriByteGenius/CareerCompass/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter creates and configures the Gin router for the job service.
func NewRouter(h *JobHandler) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CorrelationID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/jobs", h.CreateJob)
	r.PUT("/jobs/:id", h.UpdateJob)
	r.DELETE("/jobs/:id", h.DeleteJob)
	r.GET("/jobs/:id", h.GetJob)
	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs/search", h.TriggerSearch)

	return r
}
