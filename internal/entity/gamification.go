package entity

import "time"

// Ledger reasons. Achievement awards use ReasonAchievementPrefix + type key.
const (
	ReasonPost              = "post"
	ReasonFirstPostBonus    = "first_post_bonus"
	ReasonStreakBonus       = "streak_bonus"
	ReasonCorrection        = "correction"
	ReasonAchievementPrefix = "achievement:"
)

// PointTransaction is one append-only ledger row. Rows are never updated or
// deleted; a user's score is the sum of their rows.
type PointTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index:idx_point_user_date,priority:1;not null" json:"user_id"`
	Points    int       `gorm:"not null" json:"points"`
	Reason    string    `gorm:"size:64;not null" json:"reason"`
	PostID    *int64    `gorm:"index" json:"post_id,omitempty"`
	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_point_user_date,priority:2;not null" json:"created_at"`
}

// UserScore is the denormalized snapshot read by the leaderboard. It can be
// rebuilt at any time from point_transactions and the publish history.
type UserScore struct {
	UserID        int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalPoints   int64      `gorm:"not null;default:0;index" json:"total_points"`
	CurrentStreak int        `gorm:"not null;default:0" json:"current_streak"`
	BestStreak    int        `gorm:"not null;default:0" json:"best_streak"`
	LastPostDate  *time.Time `json:"last_post_date,omitempty"`
	Version       int64      `gorm:"not null;default:0" json:"-"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserAchievement records an unlocked achievement. The unique index makes a
// second award of the same type to the same user impossible.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"uniqueIndex:idx_user_achievement,priority:1;not null" json:"user_id"`
	Type          string    `gorm:"size:32;uniqueIndex:idx_user_achievement,priority:2;not null" json:"type"`
	PointsAwarded int       `gorm:"not null" json:"points_awarded"`
	EarnedAt      time.Time `gorm:"not null;index" json:"earned_at"`
}
