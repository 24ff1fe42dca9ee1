package stats

import "time"

// GameStats is the running win/loss/draw tally of one user
type GameStats struct {
	UserID string `gorm:"primaryKey;size:64" json:"userId"`
	Wins   int    `gorm:"not null;default:0;index:idx_game_stats_rank,priority:1,sort:desc" json:"wins"`
	Draws  int    `gorm:"not null;default:0;index:idx_game_stats_rank,priority:2,sort:desc" json:"draws"`
	Losses int    `gorm:"not null;default:0;index:idx_game_stats_rank,priority:3" json:"losses"`

	// CurrentStreak counts consecutive wins; any loss or draw resets it
	CurrentStreak int       `gorm:"not null;default:0" json:"currentStreak"`
	BestStreak    int       `gorm:"not null;default:0" json:"bestStreak"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (GameStats) TableName() string { return "game_stats" }

func (s GameStats) GamesPlayed() int {
	return s.Wins + s.Losses + s.Draws
}

// GameRecord is one finished round of a session. The session id and round
// guard against counting a result twice.
type GameRecord struct {
	SessionID  string    `gorm:"primaryKey;size:64" json:"sessionId"`
	Round      int       `gorm:"primaryKey;autoIncrement:false" json:"round"`
	Variant    string    `gorm:"size:32;not null" json:"variant"`
	PlayerOne  string    `gorm:"size:64;not null;index" json:"playerOne"`
	PlayerTwo  string    `gorm:"size:64;not null;index" json:"playerTwo"`
	Winner     string    `gorm:"size:64" json:"winner,omitempty"`
	Draw       bool      `gorm:"not null;default:false" json:"draw"`
	FinishedAt time.Time `gorm:"not null;index" json:"finishedAt"`
}

func (GameRecord) TableName() string { return "game_records" }

// Models lists the tables owned by this package, for migrations
func Models() []interface{} {
	return []interface{}{&GameStats{}, &GameRecord{}, &Achievement{}}
}

// StatsResponse is the public view of a user's stats
type StatsResponse struct {
	GameStats
	GamesPlayed int `json:"gamesPlayed"`
}

func NewStatsResponse(s GameStats) StatsResponse {
	return StatsResponse{GameStats: s, GamesPlayed: s.GamesPlayed()}
}
