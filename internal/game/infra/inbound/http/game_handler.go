package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/gamehub/internal/game/application"
	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/davicafu/gamehub/pkg/utils"
)

const (
	defaultRankingLimit = 10
	dayLayout           = "2006-01-02"
)

// GameHandler encapsula los endpoints HTTP del catálogo.
type GameHandler struct {
	service *application.GameService
}

func NewGameHandler(service *application.GameService) *GameHandler {
	return &GameHandler{service: service}
}

type activityRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// GetGame endpoint GET /games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.service.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendGameError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, game)
}

// SearchGames endpoint GET /games/search?q=&category=&page=&pageSize=
func (h *GameHandler) SearchGames(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		utils.SendBadRequest(c, "invalid page")
		return
	}
	pageSize, err := intQuery(c, "pageSize", gameDomain.DefaultPageSize)
	if err != nil {
		utils.SendBadRequest(c, "invalid pageSize")
		return
	}

	res, err := h.service.SearchGames(c.Request.Context(), gameDomain.SearchQuery{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		sendGameError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, res)
}

// StartGame endpoint POST /games/:id/start
func (h *GameHandler) StartGame(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	if err := h.service.StartGame(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		sendGameError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// QueueGame endpoint POST /games/:id/queue
func (h *GameHandler) QueueGame(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	if err := h.service.QueueGame(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		sendGameError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// PopularGames endpoint GET /games/popular?limit=
func (h *GameHandler) PopularGames(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultRankingLimit)
	if err != nil {
		utils.SendBadRequest(c, "invalid limit")
		return
	}
	games, err := h.service.PopularGames(c.Request.Context(), limit)
	if err != nil {
		sendGameError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, games)
}

// Recommendations endpoint GET /games/recommendations?userId=&limit=
func (h *GameHandler) Recommendations(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultRankingLimit)
	if err != nil {
		utils.SendBadRequest(c, "invalid limit")
		return
	}
	rec, err := h.service.Recommendations(c.Request.Context(), c.Query("userId"), limit)
	if err != nil {
		sendGameError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, rec)
}

// PlayTrend endpoint GET /games/analytics/plays?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *GameHandler) PlayTrend(c *gin.Context) {
	from, errFrom := time.Parse(dayLayout, c.Query("from"))
	to, errTo := time.Parse(dayLayout, c.Query("to"))
	if errFrom != nil || errTo != nil {
		utils.SendBadRequest(c, "from and to must be YYYY-MM-DD")
		return
	}
	trend, err := h.service.PlayTrend(c.Request.Context(), from, to)
	if err != nil {
		sendGameError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, trend)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// gameErrors traduce los errores del catálogo a códigos HTTP.
var gameErrors = []utils.ErrorStatus{
	{Err: gameDomain.ErrInvalidGameID, Status: http.StatusBadRequest},
	{Err: gameDomain.ErrInvalidUserID, Status: http.StatusBadRequest},
	{Err: gameDomain.ErrInvalidLimit, Status: http.StatusBadRequest},
	{Err: application.ErrInvalidRange, Status: http.StatusBadRequest},
	{Err: gameDomain.ErrGameNotFound, Status: http.StatusNotFound, Message: "game not found"},
	{Err: application.ErrAnalyticsDisabled, Status: http.StatusServiceUnavailable},
}

func sendGameError(c *gin.Context, err error) {
	utils.SendMappedError(c, err, gameErrors...)
}
