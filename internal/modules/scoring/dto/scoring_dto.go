package dto

import (
	"time"

	commonDto "anoa.com/contentscore/pkg/dto"
)

// PublishEventRequest is sent by the posting subsystem after a post went out.
type PublishEventRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
	PostID int64 `json:"post_id" binding:"required,gt=0"`
}

type AdjustPointsRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	Points int    `json:"points" binding:"required"`
	Note   string `json:"note" binding:"required,max=255"`
}

// BreakdownItem is one ledger award made while scoring an event.
type BreakdownItem struct {
	Reason string `json:"reason"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

type AchievementResponse struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PointsAwarded int       `json:"points_awarded"`
	EarnedAt      time.Time `json:"earned_at"`
}

// ScoringResult summarizes one publish event. PointsAwarded and Breakdown
// cover the post itself (base, first post and streak awards); rewards of
// newly unlocked achievements are reported in AchievementPoints.
// SnapshotStale is set when the ledger was written but the leaderboard
// snapshot could not be refreshed; the nightly recompute repairs it.
// TotalPoints is null when the ledger sum itself could not be read.
type ScoringResult struct {
	PointsAwarded     int                   `json:"points_awarded"`
	Breakdown         []BreakdownItem       `json:"breakdown"`
	NewAchievements   []AchievementResponse `json:"new_achievements"`
	AchievementPoints int                   `json:"achievement_points"`
	CurrentStreak     int                   `json:"current_streak"`
	BestStreak        int                   `json:"best_streak"`
	TotalPoints       *int64                `json:"total_points"`
	SnapshotStale     bool                  `json:"snapshot_stale"`
}

type UserScoreResponse struct {
	UserID        int64                `json:"user_id"`
	TotalPoints   int64                `json:"total_points"`
	CurrentStreak int                  `json:"current_streak"`
	BestStreak    int                  `json:"best_streak"`
	PostCount     int64                `json:"post_count"`
	Rank          int64                `json:"rank"`
	TotalUsers    int64                `json:"total_users"`
	Tier          commonDto.TierStatus `json:"tier"`
}

type PointTransactionResponse struct {
	ID        uint      `json:"id"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	PostID    *int64    `json:"post_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
