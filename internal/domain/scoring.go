package domain

import (
	"math"
	"time"
)

const (
	BasePoints           = 1000
	TimePenaltyPerSecond = 10
)

// CalculatePoints decays linearly from BasePoints by TimePenaltyPerSecond, floored at zero.
// Anything past maxTime earns nothing.
func CalculatePoints(timeSpent float64, maxTime int) int {
	if timeSpent > float64(maxTime) {
		return 0
	}
	points := math.Round(BasePoints - timeSpent*TimePenaltyPerSecond)
	return int(math.Max(0, points))
}

// ScoreAnswer derives the stored time spent (whole seconds clamped to the window) and the points for a
// submission made elapsed after the question opened.
func ScoreAnswer(correct bool, elapsed, window time.Duration) (timeSpent int, points int) {
	secs := int(elapsed / time.Second)
	limit := int(window / time.Second)
	timeSpent = min(max(secs, 0), limit)
	if !correct || elapsed > window {
		return timeSpent, 0
	}
	return timeSpent, CalculatePoints(float64(secs), limit)
}

// CalculateAccuracy returns round(correct/total*100), or 0 when nothing was answered.
func CalculateAccuracy(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
