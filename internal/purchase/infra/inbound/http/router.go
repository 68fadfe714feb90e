package http

import "github.com/gin-gonic/gin"

// RegisterPurchaseRoutes registra las rutas HTTP de compras.
func RegisterPurchaseRoutes(r *gin.Engine, handler *PurchaseHandler) {
	purchases := r.Group("/purchases")
	{
		purchases.POST("", handler.CreatePurchase)
		purchases.GET("/:id", handler.GetPurchase)
	}
}
