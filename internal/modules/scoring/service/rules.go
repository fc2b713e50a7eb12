package service

import "time"

// Rules are the point constants and calendar policy used while scoring.
// They are fixed for the lifetime of a Service.
type Rules struct {
	BasePoints       int
	FirstPostBonus   int
	StreakMultiplier int
	// StreakWindowDays bounds how far back streaks are computed.
	StreakWindowDays int
	WeeklyWindowDays int
	Location         *time.Location
}

func DefaultRules() Rules {
	return Rules{
		BasePoints:       10,
		FirstPostBonus:   25,
		StreakMultiplier: 2,
		StreakWindowDays: 30,
		WeeklyWindowDays: 7,
		Location:         time.UTC,
	}
}

// StreakBonus is the extra award for a post that extends a streak to current
// days. A streak of one day earns nothing.
func (r Rules) StreakBonus(current int) int {
	if current <= 1 {
		return 0
	}
	return (current - 1) * r.StreakMultiplier
}
