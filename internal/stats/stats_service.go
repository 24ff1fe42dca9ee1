package stats

import (
	"context"
	"errors"
	"strings"

	"chat-realtime/internal/game"
	"chat-realtime/pkg/logger"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
	DefaultRecentLimit      = 10
)

var ErrInvalidUserID = errors.New("user id is required")

type StatsService interface {
	game.ResultSink
	Name() string
	GetStats(ctx context.Context, userID string) (*StatsResponse, error)
	Leaderboard(ctx context.Context, limit int) ([]StatsResponse, error)
	RecentGames(ctx context.Context, userID string, limit int) ([]GameRecord, error)
	Achievements(ctx context.Context, userID string) ([]Achievement, error)
}

type statsService struct {
	repo StatsRepository
	log  *logger.Logger
}

func NewStatsService(repo StatsRepository, log *logger.Logger) StatsService {
	if log == nil {
		log = logger.NewNop()
	}
	return &statsService{repo: repo, log: log.Named("stats")}
}

func (s *statsService) Name() string { return "stats" }

// RecordResult tallies a finished game. A result seen twice is logged and
// otherwise ignored.
func (s *statsService) RecordResult(ctx context.Context, result game.Result) error {
	err := s.repo.RecordResult(ctx, result)
	if errors.Is(err, ErrDuplicateResult) {
		s.log.Debug("Skipping duplicate game result", "session_id", result.SessionID, "round", result.Round)
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info("Recorded game result",
		"session_id", result.SessionID,
		"round", result.Round,
		"variant", result.Variant,
		"winner", result.Winner,
		"draw", result.Draw)
	return nil
}

func (s *statsService) GetStats(ctx context.Context, userID string) (*StatsResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := NewStatsResponse(*stats)
	return &resp, nil
}

func (s *statsService) Leaderboard(ctx context.Context, limit int) ([]StatsResponse, error) {
	board, err := s.repo.Leaderboard(ctx, clampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit))
	if err != nil {
		return nil, err
	}
	resp := make([]StatsResponse, 0, len(board))
	for _, entry := range board {
		resp = append(resp, NewStatsResponse(entry))
	}
	return resp, nil
}

func (s *statsService) RecentGames(ctx context.Context, userID string, limit int) ([]GameRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	records, err := s.repo.RecentGames(ctx, userID, clampLimit(limit, DefaultRecentLimit, MaxLeaderboardLimit))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []GameRecord{}
	}
	return records, nil
}

func (s *statsService) Achievements(ctx context.Context, userID string) ([]Achievement, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	achievements, err := s.repo.Achievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	if achievements == nil {
		achievements = []Achievement{}
	}
	return achievements, nil
}

func clampLimit(limit, def, max int) int {
	switch {
	case limit <= 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}
