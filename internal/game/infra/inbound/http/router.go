package http

import "github.com/gin-gonic/gin"

// RegisterGameRoutes registra las rutas HTTP del catálogo.
func RegisterGameRoutes(r *gin.Engine, handler *GameHandler) {
	games := r.Group("/games")
	{
		// Las rutas estáticas van antes que /:id
		games.GET("/search", handler.SearchGames)
		games.GET("/popular", handler.PopularGames)
		games.GET("/recommendations", handler.Recommendations)
		games.GET("/analytics/plays", handler.PlayTrend)

		games.GET("/:id", handler.GetGame)
		games.POST("/:id/start", handler.StartGame)
		games.POST("/:id/queue", handler.QueueGame)
	}
}
