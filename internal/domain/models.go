package domain

import "sort"

// User is a participant identity as stored in the session roster.
type User struct {
	Key  string `json:"key,omitempty"`
	Name string `json:"name"`
}

// AnswerRecord is the denormalized copy of a user plus their submitted choice,
// written once per user per question. Resubmission overwrites in place.
type AnswerRecord struct {
	Key    string `json:"key,omitempty"`
	Name   string `json:"name"`
	Answer int    `json:"answer"`
}

// Question models an MCQ round. RightAnswer indexes into Answers.
type Question struct {
	Title       string                  `json:"title"`
	Body        string                  `json:"body"`
	Answers     []string                `json:"answers"`
	RightAnswer int                     `json:"rightAnswer"`
	Answered    map[string]AnswerRecord `json:"answered,omitempty"`
}

// Session is the shared quiz document. Every connected client reads and
// writes the same session; QuestionsCount is the round pointer.
type Session struct {
	Questions      []Question       `json:"questions"`
	QuestionsCount int              `json:"questionsCount"`
	IsWaiting      bool             `json:"isWaiting"`
	ShowResults    bool             `json:"showResults"`
	ActiveUsers    map[string]*User `json:"activeUsers,omitempty"`

	// Key is the store path segment the session was loaded from (the PIN);
	// assigned by the watcher, never persisted.
	Key string `json:"-"`
}

// ScoredUser is a ranked roster entry. Derived, never persisted.
type ScoredUser struct {
	User
	Score int `json:"score"`
}

// GameOver reports whether the round pointer has reached the last question.
// The >= comparison is deliberate: a pointer pushed past the end still ends
// the game instead of wrapping back into a question screen.
func (s *Session) GameOver() bool {
	return s.QuestionsCount+1 >= len(s.Questions)
}

// Current returns the active question, or false when the pointer is out of range.
func (s *Session) Current() (Question, bool) {
	if s.QuestionsCount < 0 || s.QuestionsCount >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.QuestionsCount], true
}

// Roster returns the active users in key order. Map iteration order would
// change from call to call, and the leaderboard tie-break depends on a
// stable roster order.
func (s *Session) Roster() []*User {
	keys := make([]string, 0, len(s.ActiveUsers))
	for key := range s.ActiveUsers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	roster := make([]*User, 0, len(keys))
	for _, key := range keys {
		roster = append(roster, s.ActiveUsers[key])
	}
	return roster
}
