package service

import (
	"math"

	"anoa.com/contentscore/pkg/dto"
)

// Tier thresholds on all-time points. A tier is permanent while points only
// grow; corrections can move a user down again.
const (
	PointsLegend      = 20000
	PointsVeteran     = 8000
	PointsInfluencer  = 3000
	PointsContributor = 600
	PointsRegular     = 100
	PointsNewcomer    = 0
)

// Weekly activity thresholds on points earned in the last 7 days.
const (
	WeeklyOnFire   = 100
	WeeklyTrending = 50
	WeeklyActive   = 20
)

const maxTier = "Max Level"

type tier struct {
	name      string
	threshold int64
}

// Ordered from highest to lowest.
var tiers = []tier{
	{"Legend", PointsLegend},
	{"Veteran", PointsVeteran},
	{"Influencer", PointsInfluencer},
	{"Contributor", PointsContributor},
	{"Regular", PointsRegular},
	{"Newcomer", PointsNewcomer},
}

// TierFor calculates the tier status for all-time points only.
func TierFor(totalPoints int64) dto.TierStatus {
	return TierWithWeekly(totalPoints, 0)
}

// TierWithWeekly calculates the tier from all-time points and the activity
// label from weekly points.
func TierWithWeekly(totalPoints, weeklyPoints int64) dto.TierStatus {
	status := dto.TierStatus{
		CurrentPoints: totalPoints,
		WeeklyPoints:  weeklyPoints,
	}

	for i, t := range tiers {
		if totalPoints < t.threshold && i < len(tiers)-1 {
			continue
		}
		status.TierName = t.name
		if i == 0 {
			status.NextTier = maxTier
			status.TargetPoints = t.threshold
			status.Progress = 100
			break
		}
		next := tiers[i-1]
		status.NextTier = next.name
		status.TargetPoints = next.threshold
		if totalPoints > 0 {
			status.Progress = float64(totalPoints) / float64(next.threshold) * 100
		}
		break
	}

	switch {
	case weeklyPoints >= WeeklyOnFire:
		status.WeeklyLabel = "On Fire"
	case weeklyPoints >= WeeklyTrending:
		status.WeeklyLabel = "Trending"
	case weeklyPoints >= WeeklyActive:
		status.WeeklyLabel = "Active"
	}

	status.Progress = math.Round(status.Progress*100) / 100
	return status
}
