package stats

import (
	"fmt"
	"time"

	"chat-realtime/internal/game"
)

// Achievement codes. Per-variant first wins use FirstWinCode.
const (
	AchievementFirstGame   = "first-game"
	AchievementFirstWin    = "first-win"
	AchievementWinStreak3  = "win-streak-3"
	AchievementWinStreak5  = "win-streak-5"
	AchievementGames10     = "games-10"
	AchievementGames50     = "games-50"
	achievementFirstWinFmt = "first-win-%s"
)

// Achievement is awarded once per user and code, when the result that earned
// it is recorded
type Achievement struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"userId"`
	Code      string    `gorm:"primaryKey;size:64" json:"code"`
	AwardedAt time.Time `gorm:"not null" json:"awardedAt"`
}

func (Achievement) TableName() string { return "game_achievements" }

// FirstWinCode is the code for a user's first win in variant
func FirstWinCode(variant game.Variant) string {
	return fmt.Sprintf(achievementFirstWinFmt, variant)
}

// earned lists the codes a user qualifies for right after a result, given
// their updated tally. Codes already held are filtered out on insert.
func earned(stats GameStats, o outcome, variant game.Variant) []string {
	codes := []string{AchievementFirstGame}

	if o == outcomeWin {
		codes = append(codes, AchievementFirstWin, FirstWinCode(variant))
	}
	if stats.CurrentStreak >= 3 {
		codes = append(codes, AchievementWinStreak3)
	}
	if stats.CurrentStreak >= 5 {
		codes = append(codes, AchievementWinStreak5)
	}

	played := stats.GamesPlayed()
	if played >= 10 {
		codes = append(codes, AchievementGames10)
	}
	if played >= 50 {
		codes = append(codes, AchievementGames50)
	}
	return codes
}
