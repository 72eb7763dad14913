package domain

import "time"

// SessionStatus is the lifecycle phase of a live session.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// Live reports whether a session in this phase still holds its join code.
func (s SessionStatus) Live() bool {
	return s == StatusWaiting || s == StatusActive
}

// Session is one live run of a quiz. It is only mutated through the transitions in session.go.
type Session struct {
	ID                  string        `json:"id"`
	QuizID              string        `json:"quizId"`
	Status              SessionStatus `json:"status"`
	JoinCode            string        `json:"joinCode"`
	CurrentRound        int           `json:"currentRound"`
	CurrentQuestion     int           `json:"currentQuestion"`
	QuestionStartTime   *time.Time    `json:"questionStartTime"`
	IsQuestionClosed    bool          `json:"isQuestionClosed"`
	TimerDuration       int           `json:"timerDuration"` // seconds
	AutoCloseOnTimerEnd bool          `json:"autoCloseOnTimerEnd"`
	CreatedAt           time.Time     `json:"createdAt"`
	StartedAt           *time.Time    `json:"startedAt,omitempty"`
	EndedAt             *time.Time    `json:"endedAt,omitempty"`
}

// Player is a participant bound to one session.
type Player struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Name       string    `json:"name"`
	TotalScore int       `json:"totalScore"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// Answer is a single submission. Its ID is derived from (session, player, question).
type Answer struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	PlayerID     string    `json:"playerId"`
	PlayerName   string    `json:"playerName"`
	QuestionID   string    `json:"questionId"`
	RoundID      string    `json:"roundId"`
	AnswerIndex  int       `json:"answerIndex"`
	IsCorrect    bool      `json:"isCorrect"`
	Timestamp    time.Time `json:"timestamp"`
	TimeSpent    int       `json:"timeSpent"` // seconds
	PointsEarned int       `json:"pointsEarned"`
}

// AnswerID is the deterministic ledger key for a player's answer to a question.
func AnswerID(sessionID, playerID, questionID string) string {
	return sessionID + ":" + playerID + ":" + questionID
}

// QuestionStatistics holds running counters for a question across all sessions.
type QuestionStatistics struct {
	QuestionID       string  `json:"questionId"`
	TimesAsked       int     `json:"timesAsked"`
	CorrectAnswers   int     `json:"correctAnswers"`
	WrongAnswers     int     `json:"wrongAnswers"`
	AverageTimeSpent float64 `json:"averageTimeSpent"`
}

// Record folds one answer into the counters, keeping AverageTimeSpent as an incremental mean.
func (s QuestionStatistics) Record(correct bool, timeSpent int) QuestionStatistics {
	s.AverageTimeSpent = (s.AverageTimeSpent*float64(s.TimesAsked) + float64(timeSpent)) / float64(s.TimesAsked+1)
	s.TimesAsked++
	if correct {
		s.CorrectAnswers++
	} else {
		s.WrongAnswers++
	}
	return s
}

// OptionsPerQuestion is the number of answer options every question carries.
const OptionsPerQuestion = 4

// Question is a multiple-choice question with one correct option.
type Question struct {
	ID           string   `json:"id"`
	QuizID       string   `json:"quizId"`
	RoundID      string   `json:"roundId"`
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
	Order        int      `json:"order"`
}

// ValidOption reports whether idx addresses one of the question's options.
func (q Question) ValidOption(idx int) bool {
	return idx >= 0 && idx < len(q.Answers)
}

// Round is an ordered group of questions.
type Round struct {
	ID        string     `json:"id"`
	QuizID    string     `json:"quizId"`
	Name      string     `json:"name"`
	Order     int        `json:"order"`
	Questions []Question `json:"questions,omitempty"`
}

// Quiz is read-only content: ordered rounds, each with ordered questions.
type Quiz struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rounds []Round `json:"rounds"`
}

// QuestionAt resolves a (round, question) pointer pair.
func (q Quiz) QuestionAt(round, question int) (Round, Question, bool) {
	if round < 0 || round >= len(q.Rounds) {
		return Round{}, Question{}, false
	}
	r := q.Rounds[round]
	if question < 0 || question >= len(r.Questions) {
		return Round{}, Question{}, false
	}
	return r, r.Questions[question], true
}

// NextPosition returns the pointer pair following (round, question), skipping rounds without questions.
func (q Quiz) NextPosition(round, question int) (int, int, bool) {
	if round >= 0 && round < len(q.Rounds) && question+1 < len(q.Rounds[round].Questions) {
		return round, question + 1, true
	}
	for r := round + 1; r < len(q.Rounds); r++ {
		if len(q.Rounds[r].Questions) > 0 {
			return r, 0, true
		}
	}
	return 0, 0, false
}

// QuestionCount returns the total number of questions across rounds.
func (q Quiz) QuestionCount() int {
	n := 0
	for _, r := range q.Rounds {
		n += len(r.Questions)
	}
	return n
}
