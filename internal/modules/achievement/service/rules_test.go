package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func types(defs []Definition) []Type {
	out := make([]Type, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Type)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		stats  Stats
		earned map[Type]bool
		want   []Type
	}{
		{
			name: "nothing yet",
			want: []Type{},
		},
		{
			name:  "first post",
			stats: Stats{TotalPosts: 1, CurrentStreak: 1, WeeklyPosts: 1},
			want:  []Type{FirstPost},
		},
		{
			name:  "first post only on the first post",
			stats: Stats{TotalPosts: 5, CurrentStreak: 1, WeeklyPosts: 1},
			want:  []Type{},
		},
		{
			name:   "third consecutive day",
			stats:  Stats{TotalPosts: 3, CurrentStreak: 3, WeeklyPosts: 3},
			earned: map[Type]bool{FirstPost: true},
			want:   []Type{Streak3},
		},
		{
			name:   "several thresholds at once",
			stats:  Stats{TotalPosts: 10, CurrentStreak: 7, WeeklyPosts: 7},
			earned: map[Type]bool{FirstPost: true},
			want:   []Type{Streak3, Streak7, Posts10, Weekly5},
		},
		{
			name:  "earned achievements are never returned again",
			stats: Stats{TotalPosts: 100, CurrentStreak: 30, WeeklyPosts: 7},
			earned: map[Type]bool{
				FirstPost: true, Streak3: true, Streak7: true, Streak30: true,
				Posts10: true, Posts50: true, Posts100: true, Weekly5: true,
			},
			want: []Type{},
		},
		{
			name:   "weekly without streak",
			stats:  Stats{TotalPosts: 5, CurrentStreak: 1, WeeklyPosts: 5},
			earned: map[Type]bool{FirstPost: true},
			want:   []Type{Weekly5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.stats, tt.earned)
			assert.Equal(t, tt.want, types(got))
		})
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	assert.Len(t, defs, 8)

	rewards := map[Type]int{}
	for _, d := range defs {
		rewards[d.Type] = d.Reward
	}
	assert.Equal(t, map[Type]int{
		FirstPost: 25, Streak3: 30, Streak7: 75, Streak30: 200,
		Posts10: 50, Posts50: 150, Posts100: 300, Weekly5: 50,
	}, rewards)

	// Mutating the copy does not change the table.
	defs[0].Reward = 0
	def, ok := Lookup(FirstPost)
	assert.True(t, ok)
	assert.Equal(t, 25, def.Reward)
	assert.Equal(t, "First Post", def.Name)

	_, ok = Lookup("UNKNOWN")
	assert.False(t, ok)
}
