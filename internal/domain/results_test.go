package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	summary := Summarize("q1", []Answer{
		{AnswerIndex: 1, IsCorrect: true},
		{AnswerIndex: 1, IsCorrect: true},
		{AnswerIndex: 3},
	})
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Correct)
	assert.Equal(t, 1, summary.Wrong)
	assert.Equal(t, []int{0, 2, 0, 1}, summary.OptionCounts)
}

func TestBuildResultsRanksByScore(t *testing.T) {
	joined := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	players := []Player{
		{ID: "p1", Name: "Bob", TotalScore: 0, JoinedAt: joined},
		{ID: "p2", Name: "Alice", TotalScore: 950, JoinedAt: joined.Add(time.Second)},
		{ID: "p3", Name: "Carol", TotalScore: 0, JoinedAt: joined.Add(2 * time.Second)},
	}
	answers := map[string][]Answer{
		"p1": {{TimeSpent: 12}},
		"p2": {{TimeSpent: 5, IsCorrect: true}, {TimeSpent: 8}},
	}

	results := BuildResults(players, answers)
	require.Len(t, results, 3)

	assert.Equal(t, "Alice", results[0].PlayerName)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[0].Answered)
	assert.Equal(t, 50, results[0].Accuracy)
	assert.InDelta(t, 6.5, results[0].AverageTimeSpent, 1e-9)

	assert.Equal(t, "Bob", results[1].PlayerName, "earlier joiner wins the tie")
	assert.Equal(t, 2, results[1].Rank)
	assert.Equal(t, "Carol", results[2].PlayerName)
	assert.Zero(t, results[2].Accuracy)

	assert.Equal(t, "p1", players[0].ID, "input order untouched")
}
