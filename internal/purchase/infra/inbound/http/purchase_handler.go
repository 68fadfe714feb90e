package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/davicafu/gamehub/internal/purchase/application"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	"github.com/davicafu/gamehub/pkg/utils"
)

// PurchaseHandler encapsula los endpoints HTTP de compras.
type PurchaseHandler struct {
	service *application.PurchaseService
}

func NewPurchaseHandler(service *application.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// CreatePurchase endpoint POST /purchases
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req struct {
		GameID string `json:"gameId" binding:"required"`
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	p, err := h.service.CreatePurchase(c.Request.Context(), req.GameID, req.UserID)
	if err != nil {
		utils.SendMappedError(c, err,
			utils.ErrorStatus{Err: purchaseDomain.ErrInvalidPurchase, Status: http.StatusBadRequest},
			utils.ErrorStatus{Err: gameDomain.ErrGameNotFound, Status: http.StatusNotFound, Message: "game not found"},
		)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, p)
}

// GetPurchase endpoint GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	p, err := h.service.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendMappedError(c, err,
			utils.ErrorStatus{Err: purchaseDomain.ErrPurchaseNotFound, Status: http.StatusNotFound, Message: "purchase not found"},
		)
		return
	}
	utils.SendSuccess(c, http.StatusOK, p)
}
