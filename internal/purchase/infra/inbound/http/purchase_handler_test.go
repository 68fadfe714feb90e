package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/davicafu/gamehub/internal/mocks"
	"github.com/davicafu/gamehub/internal/purchase/application"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	"github.com/davicafu/gamehub/internal/shared/eventlog"
)

type purchaseHTTPResponse struct {
	Data purchaseDomain.Purchase `json:"data"`
}

func newPurchaseRouter(repo *mocks.InMemoryPurchaseRepo, games ...gameDomain.Game) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := application.NewPurchaseService(
		repo,
		mocks.NewInMemoryGameRepo(games...),
		eventlog.NewAppender(mocks.NewInMemoryEventStore(), true, zap.NewNop()),
		zap.NewNop(),
	)
	r := gin.New()
	RegisterPurchaseRoutes(r, NewPurchaseHandler(service))
	return r
}

func TestCreatePurchase_HTTPContract(t *testing.T) {
	gameID := uuid.NewString()
	repo := mocks.NewInMemoryPurchaseRepo()
	r := newPurchaseRouter(repo, gameDomain.Game{ID: gameID, Price: 10})

	body := `{"gameId":"` + gameID + `","userId":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp purchaseHTTPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, purchaseDomain.PurchasePending, resp.Data.Status)
	assert.Equal(t, 10.0, resp.Data.Amount)
	assert.Len(t, repo.Outbox, 1)

	// La compra recién creada se puede leer
	req2 := httptest.NewRequest(http.MethodGet, "/purchases/"+resp.Data.ID, nil)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestCreatePurchase_Errors(t *testing.T) {
	r := newPurchaseRouter(mocks.NewInMemoryPurchaseRepo())

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{}`, http.StatusBadRequest},
		{"invalid game id", `{"gameId":"nope","userId":"u"}`, http.StatusBadRequest},
		{"unknown game", `{"gameId":"` + uuid.NewString() + `","userId":"u"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestGetPurchase_NotFound(t *testing.T) {
	r := newPurchaseRouter(mocks.NewInMemoryPurchaseRepo())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "purchase not found")
}
