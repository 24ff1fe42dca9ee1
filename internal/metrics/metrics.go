package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"chat-realtime/internal/config"
	"chat-realtime/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	onlineUsers    prometheus.Gauge
	activeSessions prometheus.Gauge
	eventsRouted   *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	gameRejections *prometheus.CounterVec
	evicted        prometheus.Counter
	gamesFinished  *prometheus.CounterVec

	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	onlineUsers := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "online_users", Help: "Users with a live websocket connection"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "active_game_sessions", Help: "Game sessions held in memory"})
	eventsRouted := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "events_routed_total", Help: "Events queued on a live connection"}, []string{"event"})
	eventsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "events_dropped_total", Help: "Events dropped because the target was offline or unreachable"}, []string{"event"})
	gameRejections := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "game_rejections_total", Help: "Refused game events by error code"}, []string{"code"})
	evicted := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "game_sessions_evicted_total", Help: "Game sessions removed by the sweeper"})
	gamesFinished := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "games_finished_total", Help: "Finished games by variant and outcome"}, []string{"variant", "outcome"})
	r.MustRegister(onlineUsers, activeSessions, eventsRouted, eventsDropped, gameRejections, evicted, gamesFinished)

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route", "status"})
	r.MustRegister(httpReqCnt, httpDur)

	return &Metrics{
		registry:       r,
		onlineUsers:    onlineUsers,
		activeSessions: activeSessions,
		eventsRouted:   eventsRouted,
		eventsDropped:  eventsDropped,
		gameRejections: gameRejections,
		evicted:        evicted,
		gamesFinished:  gamesFinished,
		httpReqCnt:     httpReqCnt,
		httpDur:        httpDur,
	}
}

func (m *Metrics) SetOnlineUsers(n int) {
	m.onlineUsers.Set(float64(n))
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) EventRouted(event string) {
	m.eventsRouted.WithLabelValues(event).Inc()
}

func (m *Metrics) EventDropped(event string) {
	m.eventsDropped.WithLabelValues(event).Inc()
}

func (m *Metrics) GameRejected(code string) {
	m.gameRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) SessionsEvicted(n int) {
	m.evicted.Add(float64(n))
}

func (m *Metrics) GameFinished(variant string, draw bool) {
	outcome := "win"
	if draw {
		outcome = "draw"
	}
	m.gamesFinished.WithLabelValues(variant, outcome).Inc()
}

// RecordResult counts a finished game
func (m *Metrics) RecordResult(_ context.Context, result game.Result) error {
	m.GameFinished(string(result.Variant), result.Draw)
	return nil
}

func (m *Metrics) Name() string { return "metrics" }

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
