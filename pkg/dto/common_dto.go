package dto

// TierStatus describes the permanent tier a user holds for their all-time
// points plus a label for recent activity.
type TierStatus struct {
	TierName      string  `json:"tier_name"`
	NextTier      string  `json:"next_tier"`
	CurrentPoints int64   `json:"current_points"`
	TargetPoints  int64   `json:"target_points"`
	Progress      float64 `json:"progress"` // Percentage
	WeeklyPoints  int64   `json:"weekly_points"`
	WeeklyLabel   string  `json:"weekly_label"`
}
