package services

import (
	"math"
	"time"
)

// BaseXPPerLevel is the point cost of going from level 1 to level 2.
const BaseXPPerLevel = 100

// xpForNextLevel returns points required to reach level+1 from current level
// e.g., xpForNextLevel(1) = points to go from L1 → L2
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BaseXPPerLevel * n^1.2)
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// LevelFor derives the level for a cumulative point total. Level 1 starts at 0.
func LevelFor(totalPoints int64) int {
	level := 1
	need := xpForNextLevel(level)
	for totalPoints >= need {
		level++
		need += xpForNextLevel(level)
	}
	return level
}

// PointsForLevel is the cumulative total at which level is reached.
func PointsForLevel(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		total += xpForNextLevel(l)
	}
	return total
}

const dateLayout = "2006-01-02"

// NextStreak advances a daily activity streak. Activity on the same UTC day
// leaves it alone, activity the next day extends it, anything else restarts it.
func NextStreak(streak int, lastActiveDate string, now time.Time) (int, string) {
	today := now.UTC().Format(dateLayout)
	if lastActiveDate == today && streak > 0 {
		return streak, today
	}
	yesterday := now.UTC().AddDate(0, 0, -1).Format(dateLayout)
	if lastActiveDate == yesterday {
		return streak + 1, today
	}
	return 1, today
}
