package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/game"
	"chat-realtime/internal/metrics"
	"chat-realtime/internal/services"
	"chat-realtime/internal/stats"
	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server *httptest.Server
	hub    *websocket.Hub
	stats  stats.StatsService
	redis  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "secret"},
		WebSocket: config.WebSocketConfig{
			AllowedOrigins: []string{"*"},
			AllowAnonymous: true,
			SendBuffer:     16,
			MaxMessageSize: 4096,
		},
		RateLimit: config.RateLimitConfig{Requests: 5, Window: time.Minute},
		Metrics:   config.MetricsConfig{Namespace: "test"},
	}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	cfg := testConfig()

	mr := miniredis.RunT(t)
	redisClient, err := database.NewRedisConnection(config.RedisConfig{URL: "redis://" + mr.Addr()}, log)
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })
	redisService := services.NewRedisService(redisClient, log)

	db, err := database.NewConnection(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "routes.db"),
	}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, stats.Models()...))
	statsService := stats.NewStatsService(stats.NewStatsRepository(db), log)

	m := metrics.New(cfg.Metrics)
	hub := websocket.NewHub(game.NewStore(), websocket.HubConfig{
		Presence:       redisService,
		Results:        []game.ResultSink{statsService, m},
		Metrics:        m,
		SendBuffer:     cfg.WebSocket.SendBuffer,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
	}, log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := NewRouter(Dependencies{
		Config:      cfg,
		Hub:         hub,
		Metrics:     m,
		RateLimiter: redisService,
		LastSeen:    redisService,
		Stats:       statsService,
		Logger:      log,
	})
	router.SetupRoutes()

	server := httptest.NewServer(router.GetEngine())
	t.Cleanup(server.Close)
	return &fixture{server: server, hub: hub, stats: statsService, redis: mr}
}

type body struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func (f *fixture) get(t *testing.T, path string) (int, body) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var b body
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &b))
	}
	return resp.StatusCode, b
}

func (f *fixture) dial(t *testing.T, userID string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/ws?userId=" + userID
	conn, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHealthAndMetrics(t *testing.T) {
	f := setup(t)

	for _, path := range []string{"/health", "/kaithhealthcheck"} {
		status, _ := f.get(t, path)
		assert.Equal(t, http.StatusOK, status, path)
	}

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "test_http_requests_total")
}

func TestWebSocketRequiresUser(t *testing.T) {
	f := setup(t)
	status, _ := f.get(t, "/api/v1/ws")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPresenceAndSessions(t *testing.T) {
	f := setup(t)
	alice := f.dial(t, "alice")
	f.dial(t, "bob")

	require.Eventually(t, func() bool {
		return f.hub.Registry().Len() == 2 && f.redis.HGet("user:bob:status", "last_seen") != ""
	}, 2*time.Second, 10*time.Millisecond)

	status, b := f.get(t, "/api/v1/presence/online?userId=alice")
	require.Equal(t, http.StatusOK, status)
	var online []string
	require.NoError(t, json.Unmarshal(b.Data, &online))
	assert.Equal(t, []string{"alice", "bob"}, online)

	status, b = f.get(t, "/api/v1/presence/users/bob?userId=alice")
	require.Equal(t, http.StatusOK, status)
	var presence map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Data, &presence))
	assert.Equal(t, true, presence["online"])
	assert.NotEmpty(t, presence["lastSeen"])

	require.NoError(t, alice.WriteJSON(map[string]interface{}{
		"type": "game:challenge",
		"data": map[string]string{"to": "bob", "variant": "connect-four"},
	}))
	require.Eventually(t, func() bool {
		return len(f.hub.Sessions().ListByUser("bob")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	id := f.hub.Sessions().ListByUser("bob")[0].ID

	status, b = f.get(t, "/api/v1/games/sessions?userId=bob")
	require.Equal(t, http.StatusOK, status)
	var sessions []map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Data, &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "connect-four", sessions[0]["variant"])

	status, _ = f.get(t, "/api/v1/games/sessions/"+id+"?userId=alice")
	assert.Equal(t, http.StatusOK, status)
	status, _ = f.get(t, "/api/v1/games/sessions/"+id+"?userId=mallory")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatsRoutes(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.stats.RecordResult(context.Background(), game.Result{
		SessionID:    "g1",
		Variant:      game.VariantTicTacToe,
		Participants: [2]string{"alice", "bob"},
		Winner:       "alice",
		FinishedAt:   time.Now(),
	}))

	status, b := f.get(t, "/api/v1/games/leaderboard?userId=carol")
	require.Equal(t, http.StatusOK, status)
	var board []stats.StatsResponse
	require.NoError(t, json.Unmarshal(b.Data, &board))
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].UserID)

	status, b = f.get(t, "/api/v1/games/stats/bob?userId=carol")
	require.Equal(t, http.StatusOK, status)
	var bob stats.StatsResponse
	require.NoError(t, json.Unmarshal(b.Data, &bob))
	assert.Equal(t, 1, bob.Losses)

	status, b = f.get(t, "/api/v1/games/achievements/alice?userId=carol")
	require.Equal(t, http.StatusOK, status)
	var achievements []stats.Achievement
	require.NoError(t, json.Unmarshal(b.Data, &achievements))
	var got []string
	for _, a := range achievements {
		got = append(got, a.Code)
	}
	assert.ElementsMatch(t, []string{stats.AchievementFirstGame, stats.AchievementFirstWin, stats.FirstWinCode(game.VariantTicTacToe)}, got)
}

func TestRateLimited(t *testing.T) {
	f := setup(t)

	var last int
	for i := 0; i < 6; i++ {
		last, _ = f.get(t, "/api/v1/presence/online?userId=alice")
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	status, _ := f.get(t, "/api/v1/presence/online?userId=bob")
	assert.Equal(t, http.StatusOK, status)
}
