package game

import "quizpin/internal/domain"

// Reduce maps the latest user identity and session snapshot to the active
// screen. Pure; the roster heartbeat write belongs to the client loop.
//
// Precedence, first match wins:
//
//	no user                      -> Unidentified
//	no session                   -> Welcome
//	showResults && game over     -> Winners
//	showResults                  -> Results
//	isWaiting                    -> Waiting
//	otherwise                    -> QuestionView
//
// This ordering is authoritative: showResults outranks isWaiting, so a lobby
// flag left stale by a concurrent write can never hide a leaderboard.
func Reduce(user *domain.User, sess *domain.Session) Screen {
	if user == nil {
		return Unidentified{}
	}
	if sess == nil {
		return Welcome{Name: user.Name}
	}
	if sess.ShowResults {
		ranked := Rank(sess.Roster(), sess.Questions)
		if sess.GameOver() {
			return Winners{Ranked: ranked}
		}
		return Results{Ranked: ranked, NextIndex: sess.QuestionsCount + 1}
	}
	if sess.IsWaiting {
		return Waiting{}
	}
	question, ok := sess.Current()
	if !ok {
		// Round pointer out of range without showResults set: treat as a
		// round with nothing to show rather than failing.
		return QuestionView{Index: sess.QuestionsCount}
	}
	return QuestionView{
		Index:         sess.QuestionsCount,
		Title:         question.Title,
		Body:          question.Body,
		Answers:       question.Answers,
		AnsweredCount: len(question.Answered),
	}
}
