package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierWithWeekly(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		weekly   int64
		tier     string
		next     string
		target   int64
		progress float64
		label    string
	}{
		{"zero", 0, 0, "Newcomer", "Regular", 100, 0, ""},
		{"negative after correction", -20, 0, "Newcomer", "Regular", 100, 0, ""},
		{"newcomer progress", 35, 20, "Newcomer", "Regular", 100, 35, "Active"},
		{"regular", 100, 50, "Regular", "Contributor", 600, 16.67, "Trending"},
		{"contributor", 600, 99, "Contributor", "Influencer", 3000, 20, "Trending"},
		{"influencer", 4500, 100, "Influencer", "Veteran", 8000, 56.25, "On Fire"},
		{"veteran", 8000, 0, "Veteran", "Legend", 20000, 40, ""},
		{"legend", 25000, 0, "Legend", "Max Level", 20000, 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := TierWithWeekly(tt.total, tt.weekly)
			assert.Equal(t, tt.tier, status.TierName)
			assert.Equal(t, tt.next, status.NextTier)
			assert.Equal(t, tt.target, status.TargetPoints)
			assert.InDelta(t, tt.progress, status.Progress, 0.001)
			assert.Equal(t, tt.label, status.WeeklyLabel)
			assert.Equal(t, tt.total, status.CurrentPoints)
		})
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, "Regular", TierFor(150).TierName)
	assert.Empty(t, TierFor(150).WeeklyLabel)
}
