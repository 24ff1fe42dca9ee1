package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-realtime/internal/config"
	"chat-realtime/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubMetrics(t *testing.T) {
	m := New(config.MetricsConfig{Namespace: "test"})

	m.SetOnlineUsers(3)
	m.SetActiveSessions(2)
	m.EventRouted("game:update")
	m.EventRouted("game:update")
	m.EventDropped("typing")
	m.GameRejected(game.CodeNotYourTurn)
	m.SessionsEvicted(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.onlineUsers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsRouted.WithLabelValues("game:update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsDropped.WithLabelValues("typing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gameRejections.WithLabelValues(game.CodeNotYourTurn)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.evicted))
}

func TestRecordResult(t *testing.T) {
	m := New(config.MetricsConfig{Namespace: "test"})

	require.NoError(t, m.RecordResult(context.Background(), game.Result{Variant: game.VariantChess, Winner: "alice"}))
	require.NoError(t, m.RecordResult(context.Background(), game.Result{Variant: game.VariantTicTacToe, Draw: true}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gamesFinished.WithLabelValues("chess", "win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gamesFinished.WithLabelValues("tic-tac-toe", "draw")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(config.MetricsConfig{Namespace: "test"})

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqCnt.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
	assert.Contains(t, w.Body.String(), "test_online_users")
}
