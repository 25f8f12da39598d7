package game

import (
	"sort"

	"quizpin/internal/domain"
)

const (
	// PointsPerQuestion is awarded for each correct answer.
	PointsPerQuestion = 1000
	// MaxRanked caps the leaderboard length.
	MaxRanked = 10
)

// Rank scores every roster entry against the full question list and returns
// the top ten, highest score first.
//
// Nil roster entries are dropped silently. Every question contributes: an
// unanswered one scores zero, it is never excluded. Ties come out in the
// reverse of their roster order: the sort is stable ascending and then
// reversed. Clients render that order, so it is part of the contract.
func Rank(roster []*domain.User, questions []domain.Question) []domain.ScoredUser {
	scored := make([]domain.ScoredUser, 0, len(roster))
	for _, user := range roster {
		if user == nil {
			continue
		}
		score := 0
		for _, question := range questions {
			if record, ok := question.Answered[user.Key]; ok && record.Answer == question.RightAnswer {
				score += PointsPerQuestion
			}
		}
		scored = append(scored, domain.ScoredUser{User: *user, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})
	for i, j := 0, len(scored)-1; i < j; i, j = i+1, j-1 {
		scored[i], scored[j] = scored[j], scored[i]
	}

	if len(scored) > MaxRanked {
		scored = scored[:MaxRanked]
	}
	return scored
}
