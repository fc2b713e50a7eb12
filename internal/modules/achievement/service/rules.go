// Package service holds the fixed achievement table and the evaluator
// that decides which achievements a user has newly unlocked.
package service

// Type identifies an achievement. Values are persisted, so they never change.
type Type string

const (
	FirstPost Type = "FIRST_POST"
	Streak3   Type = "STREAK_3"
	Streak7   Type = "STREAK_7"
	Streak30  Type = "STREAK_30"
	Posts10   Type = "POSTS_10"
	Posts50   Type = "POSTS_50"
	Posts100  Type = "POSTS_100"
	Weekly5   Type = "WEEKLY_5"
)

type Definition struct {
	Type        Type   `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Reward      int    `json:"reward"`
}

// Stats are the user facts every rule is evaluated against.
type Stats struct {
	TotalPosts    int
	CurrentStreak int
	WeeklyPosts   int
}

type rule struct {
	Definition
	unlocked func(Stats) bool
}

var rules = []rule{
	{Definition{FirstPost, "First Post", "Posted your first post", 25}, func(s Stats) bool { return s.TotalPosts == 1 }},
	{Definition{Streak3, "3-Day Streak", "Posted 3 days in a row", 30}, func(s Stats) bool { return s.CurrentStreak >= 3 }},
	{Definition{Streak7, "Week Warrior", "Posted 7 days in a row", 75}, func(s Stats) bool { return s.CurrentStreak >= 7 }},
	{Definition{Streak30, "Monthly Master", "Posted 30 days in a row", 200}, func(s Stats) bool { return s.CurrentStreak >= 30 }},
	{Definition{Posts10, "Getting Started", "Published 10 posts", 50}, func(s Stats) bool { return s.TotalPosts >= 10 }},
	{Definition{Posts50, "Regular Poster", "Published 50 posts", 150}, func(s Stats) bool { return s.TotalPosts >= 50 }},
	{Definition{Posts100, "Century Club", "Published 100 posts", 300}, func(s Stats) bool { return s.TotalPosts >= 100 }},
	{Definition{Weekly5, "Weekly Warrior", "Posted 5 times in one week", 50}, func(s Stats) bool { return s.WeeklyPosts >= 5 }},
}

// Definitions returns a copy of the achievement table in evaluation order.
func Definitions() []Definition {
	defs := make([]Definition, len(rules))
	for i, r := range rules {
		defs[i] = r.Definition
	}
	return defs
}

func Lookup(t Type) (Definition, bool) {
	for _, r := range rules {
		if r.Type == t {
			return r.Definition, true
		}
	}
	return Definition{}, false
}

// Evaluate returns every achievement whose threshold stats meet and that is
// not in alreadyEarned. Every rule is checked on each call, so a user who
// jumps past several thresholds at once unlocks all of them.
func Evaluate(stats Stats, alreadyEarned map[Type]bool) []Definition {
	var unlocked []Definition
	for _, r := range rules {
		if alreadyEarned[r.Type] {
			continue
		}
		if r.unlocked(stats) {
			unlocked = append(unlocked, r.Definition)
		}
	}
	return unlocked
}
