package dto

import commonDto "anoa.com/contentscore/pkg/dto"

// LeaderboardEntry is one row of the ranked leaderboard. Users with equal
// totals share a Position and the next position is skipped.
type LeaderboardEntry struct {
	Position      int64                `json:"position"`
	UserID        int64                `json:"user_id"`
	Username      string               `json:"username"`
	TotalPoints   int64                `json:"total_points"`
	CurrentStreak int                  `json:"current_streak"`
	BestStreak    int                  `json:"best_streak"`
	PostCount     int64                `json:"post_count"`
	Tier          commonDto.TierStatus `json:"tier"`
}
