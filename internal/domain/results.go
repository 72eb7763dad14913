package domain

import "sort"

// AnswerSummary aggregates one question's answers for the quizmaster overview.
type AnswerSummary struct {
	QuestionID   string `json:"questionId"`
	Total        int    `json:"total"`
	Correct      int    `json:"correct"`
	Wrong        int    `json:"wrong"`
	OptionCounts []int  `json:"optionCounts"`
}

// Summarize counts answers per option. Out-of-range indexes are counted in totals only.
func Summarize(questionID string, answers []Answer) AnswerSummary {
	summary := AnswerSummary{
		QuestionID:   questionID,
		OptionCounts: make([]int, OptionsPerQuestion),
	}
	for _, a := range answers {
		summary.Total++
		if a.IsCorrect {
			summary.Correct++
		} else {
			summary.Wrong++
		}
		if a.AnswerIndex >= 0 && a.AnswerIndex < len(summary.OptionCounts) {
			summary.OptionCounts[a.AnswerIndex]++
		}
	}
	return summary
}

// PlayerStatistics is one row of the end-of-session results table.
type PlayerStatistics struct {
	PlayerID         string  `json:"playerId"`
	PlayerName       string  `json:"playerName"`
	TotalScore       int     `json:"totalScore"`
	Answered         int     `json:"answered"`
	CorrectAnswers   int     `json:"correctAnswers"`
	WrongAnswers     int     `json:"wrongAnswers"`
	AverageTimeSpent float64 `json:"averageTimeSpent"`
	Accuracy         int     `json:"accuracy"` // percent
	Rank             int     `json:"rank"`
}

// RankPlayers orders players by score descending; ties go to whoever joined first, then by name.
func RankPlayers(players []Player) []Player {
	ranked := make([]Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		if !ranked[i].JoinedAt.Equal(ranked[j].JoinedAt) {
			return ranked[i].JoinedAt.Before(ranked[j].JoinedAt)
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// BuildResults combines the roster with each player's answers into ranked statistics.
func BuildResults(players []Player, answersByPlayer map[string][]Answer) []PlayerStatistics {
	ranked := RankPlayers(players)
	results := make([]PlayerStatistics, 0, len(ranked))
	for i, p := range ranked {
		stats := PlayerStatistics{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			TotalScore: p.TotalScore,
			Rank:       i + 1,
		}
		totalTime := 0
		for _, a := range answersByPlayer[p.ID] {
			stats.Answered++
			totalTime += a.TimeSpent
			if a.IsCorrect {
				stats.CorrectAnswers++
			} else {
				stats.WrongAnswers++
			}
		}
		if stats.Answered > 0 {
			stats.AverageTimeSpent = float64(totalTime) / float64(stats.Answered)
		}
		stats.Accuracy = CalculateAccuracy(stats.CorrectAnswers, stats.Answered)
		results = append(results, stats)
	}
	return results
}
