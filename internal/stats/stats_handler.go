package stats

import (
	"errors"
	"net/http"
	"strconv"

	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService StatsService
}

func NewStatsHandler(statsService StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetStats(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *StatsHandler) GetLeaderboard(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	board, err := h.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, board)
}

func (h *StatsHandler) GetRecentGames(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	games, err := h.statsService.RecentGames(c.Request.Context(), c.Param("userId"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, games)
}

func (h *StatsHandler) GetAchievements(c *gin.Context) {
	achievements, err := h.statsService.Achievements(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, achievements)
}

func (h *StatsHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidUserID) {
		response.Error(c, http.StatusBadRequest, response.ErrCodeParamInvalid, err.Error())
		return
	}
	response.Error(c, http.StatusInternalServerError, response.ErrCodeInternal, "")
}

// queryLimit reads ?limit=, zero when absent
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		response.Error(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
