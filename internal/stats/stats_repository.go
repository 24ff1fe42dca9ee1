package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-realtime/internal/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateResult is returned when a session's result was already recorded
var ErrDuplicateResult = errors.New("game result already recorded")

type StatsRepository interface {
	RecordResult(ctx context.Context, result game.Result) error
	GetStats(ctx context.Context, userID string) (*GameStats, error)
	Leaderboard(ctx context.Context, limit int) ([]GameStats, error)
	RecentGames(ctx context.Context, userID string, limit int) ([]GameRecord, error)
	Achievements(ctx context.Context, userID string) ([]Achievement, error)
}

type statsRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db, now: time.Now}
}

// RecordResult stores the game, updates both players' tallies and awards any
// achievements they earned, all in one transaction
func (r *statsRepository) RecordResult(ctx context.Context, result game.Result) error {
	if result.SessionID == "" {
		return errors.New("result has no session id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := GameRecord{
			SessionID:  result.SessionID,
			Round:      result.Round,
			Variant:    string(result.Variant),
			PlayerOne:  result.Participants[0],
			PlayerTwo:  result.Participants[1],
			Winner:     result.Winner,
			Draw:       result.Draw,
			FinishedAt: result.FinishedAt,
		}
		if record.FinishedAt.IsZero() {
			record.FinishedAt = r.now()
		}

		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
		if insert.Error != nil {
			return fmt.Errorf("failed to store game record: %w", insert.Error)
		}
		if insert.RowsAffected == 0 {
			return ErrDuplicateResult
		}

		for _, userID := range result.Participants {
			o := outcomeFor(result, userID)
			stats, err := r.increment(tx, userID, o)
			if err != nil {
				return err
			}
			if err := r.award(tx, userID, earned(*stats, o, result.Variant), record.FinishedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

type outcome int

const (
	outcomeWin outcome = iota
	outcomeLoss
	outcomeDraw
)

func outcomeFor(result game.Result, userID string) outcome {
	switch {
	case result.Draw:
		return outcomeDraw
	case result.Winner == userID:
		return outcomeWin
	default:
		return outcomeLoss
	}
}

// increment bumps one column of userID's tally, moves the win streak and
// returns the updated row
func (r *statsRepository) increment(tx *gorm.DB, userID string, o outcome) (*GameStats, error) {
	table := GameStats{}.TableName()
	row := GameStats{UserID: userID, UpdatedAt: r.now()}
	column := "draws"
	var streak interface{} = 0
	switch o {
	case outcomeWin:
		row.Wins, column = 1, "wins"
		row.CurrentStreak = 1
		streak = gorm.Expr(fmt.Sprintf("%s.current_streak + 1", table))
	case outcomeLoss:
		row.Losses, column = 1, "losses"
	default:
		row.Draws = 1
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:           gorm.Expr(fmt.Sprintf("%s.%s + 1", table, column)),
			"current_streak": streak,
			"updated_at":     row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update stats for %s: %w", userID, err)
	}

	var stats GameStats
	if err := tx.First(&stats, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload stats for %s: %w", userID, err)
	}
	if stats.CurrentStreak > stats.BestStreak {
		stats.BestStreak = stats.CurrentStreak
		if err := tx.Model(&GameStats{}).Where("user_id = ?", userID).
			Update("best_streak", stats.BestStreak).Error; err != nil {
			return nil, fmt.Errorf("failed to update best streak for %s: %w", userID, err)
		}
	}
	return &stats, nil
}

// award inserts the given codes, skipping the ones userID already holds
func (r *statsRepository) award(tx *gorm.DB, userID string, codes []string, at time.Time) error {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]Achievement, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, Achievement{UserID: userID, Code: code, AwardedAt: at})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to award achievements to %s: %w", userID, err)
	}
	return nil
}

// GetStats returns the tally of userID, zero valued when the user never finished a game
func (r *statsRepository) GetStats(ctx context.Context, userID string) (*GameStats, error) {
	var stats GameStats
	err := r.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &GameStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Leaderboard ranks users by wins, then draws, then fewest losses
func (r *statsRepository) Leaderboard(ctx context.Context, limit int) ([]GameStats, error) {
	var board []GameStats
	err := r.db.WithContext(ctx).
		Order("wins DESC").
		Order("draws DESC").
		Order("losses ASC").
		Order("user_id ASC").
		Limit(limit).
		Find(&board).Error
	return board, err
}

func (r *statsRepository) RecentGames(ctx context.Context, userID string, limit int) ([]GameRecord, error) {
	var records []GameRecord
	err := r.db.WithContext(ctx).
		Where("player_one = ? OR player_two = ?", userID, userID).
		Order("finished_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Achievements lists what userID has earned, oldest first
func (r *statsRepository) Achievements(ctx context.Context, userID string) ([]Achievement, error) {
	var achievements []Achievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Order("code ASC").
		Find(&achievements).Error
	return achievements, err
}
