package userjob

import (
	"github.com/TriByteGenius/CareerCompass/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter creates and configures the Gin router for the favorites API.
func NewRouter(h *FavoriteHandler) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CorrelationID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	favorites := r.Group("/api/favorites", middleware.RequireUserID())
	{
		favorites.POST("/:jobId/toggle", h.ToggleFavorite)
		favorites.PUT("/:jobId/status", h.UpdateStatus)
		favorites.GET("", h.ListFavorites)
		favorites.GET("/status/:status", h.ListByStatus)
	}

	return r
}
