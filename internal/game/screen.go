package game

import "quizpin/internal/domain"

// Screen is the closed set of views a client can be on. Exactly one screen
// is active for any (user, session) pair; Reduce picks it.
type Screen interface {
	Kind() string
}

// Unidentified: no resolved user yet, identity resolution still pending.
type Unidentified struct{}

func (Unidentified) Kind() string { return "unidentified" }

// Welcome: user resolved, no session loaded. The PIN prompt.
type Welcome struct {
	Name string `json:"name"`
}

func (Welcome) Kind() string { return "welcome" }

// Waiting: the lobby, before the first question is revealed.
type Waiting struct{}

func (Waiting) Kind() string { return "waiting" }

// QuestionView: the active round.
type QuestionView struct {
	Index         int      `json:"index"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Answers       []string `json:"answers"`
	AnsweredCount int      `json:"answeredCount"`
}

func (QuestionView) Kind() string { return "question" }

// Results: the between-rounds leaderboard, capped to the top ten.
type Results struct {
	Ranked    []domain.ScoredUser `json:"ranked"`
	NextIndex int                 `json:"nextIndex"`
}

func (Results) Kind() string { return "results" }

// Winners: the end-of-game podium. Ranked carries the same top-ten list;
// the first three entries are the podium.
type Winners struct {
	Ranked []domain.ScoredUser `json:"ranked"`
}

func (Winners) Kind() string { return "winners" }
