package domain

import "errors"

var (
	// ErrInvalidJoinCode is returned when a join code is not four digits.
	ErrInvalidJoinCode = errors.New("join code must be 4 digits")
	// ErrEmptyName is returned when a player joins without a display name.
	ErrEmptyName = errors.New("player name is required")
	// ErrAnswerOutOfRange indicates the selected option does not exist on the question.
	ErrAnswerOutOfRange = errors.New("answer index out of range")
	// ErrInvalidTimerDuration indicates a non-positive or oversized timer.
	ErrInvalidTimerDuration = errors.New("invalid timer duration")

	// ErrQuestionClosed is returned when the current question does not accept answers.
	ErrQuestionClosed = errors.New("question is closed")
	// ErrAlreadyAnswered is returned when a player answers the same question twice.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidTransition is returned when a control action does not apply to the session's state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionEnded is returned for any mutation against an ended session.
	ErrSessionEnded = errors.New("session has ended")
	// ErrLastQuestion is returned when advancing past the final question; the session must be ended instead.
	ErrLastQuestion = errors.New("no further questions")

	// ErrAllocationExhausted is returned when no free join code was found. Retryable.
	ErrAllocationExhausted = errors.New("join code allocation exhausted")
	// ErrConflict is returned when a store transaction kept losing races.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrNoLiveSession is returned when a join code does not resolve to a waiting or active session.
	ErrNoLiveSession = errors.New("no live session for join code")
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPlayerNotFound is returned when a player id is unknown or belongs to another session.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id is not the session's current question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrEmptyQuiz indicates the quiz has no question at its first position.
	ErrEmptyQuiz = errors.New("quiz has no questions")
)
