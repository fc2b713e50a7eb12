// Package service computes consecutive-day publishing streaks.
package service

import (
	"sort"
	"time"
)

// Result holds the streak lengths in calendar days. Current never exceeds Best.
type Result struct {
	Current int `json:"current_streak"`
	Best    int `json:"best_streak"`
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar days from b to a. Both values
// are expected to come from DayOf with the same location.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	// Dates are compared as UTC midnights so DST shifts never produce 23h or 25h days.
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ua.Sub(ub).Hours() / 24)
}

// Compute derives the current and best streak from publish instants.
//
// Only days inside the window ending at asOf are considered. The best streak
// is therefore the longest run within the window, not over all history. The
// current streak is the run containing the most recent publish day, and only
// counts when that day is asOf or the day before.
func Compute(instants []time.Time, asOf time.Time, loc *time.Location, windowDays int) Result {
	if loc == nil {
		loc = time.UTC
	}
	if windowDays < 1 {
		windowDays = 1
	}

	today := DayOf(asOf, loc)
	seen := make(map[time.Time]struct{}, len(instants))
	days := make([]time.Time, 0, len(instants))
	for _, instant := range instants {
		day := DayOf(instant, loc)
		age := DaysBetween(today, day)
		if age < 0 || age >= windowDays {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return Result{}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	var res Result
	run := 1
	leading := true
	for i := 1; i < len(days); i++ {
		if DaysBetween(days[i-1], days[i]) == 1 {
			run++
			continue
		}
		if leading {
			res.Current = run
			leading = false
		}
		res.Best = max(res.Best, run)
		run = 1
	}
	if leading {
		res.Current = run
	}
	res.Best = max(res.Best, run)

	if DaysBetween(today, days[0]) > 1 {
		res.Current = 0
	}
	return res
}

// Decay returns the streak as it should be shown at now: a run whose last
// publish day is older than yesterday has already been broken.
func Decay(current int, lastPost *time.Time, now time.Time, loc *time.Location) int {
	if lastPost == nil || current == 0 {
		return 0
	}
	if loc == nil {
		loc = time.UTC
	}
	if DaysBetween(DayOf(now, loc), DayOf(*lastPost, loc)) > 1 {
		return 0
	}
	return current
}
