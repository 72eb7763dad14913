package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/domain"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidJoinCode, http.StatusBadRequest, "invalid_join_code"},
	{domain.ErrEmptyName, http.StatusBadRequest, "empty_name"},
	{domain.ErrAnswerOutOfRange, http.StatusBadRequest, "answer_out_of_range"},
	{domain.ErrInvalidTimerDuration, http.StatusBadRequest, "invalid_timer_duration"},
	{domain.ErrNoLiveSession, http.StatusNotFound, "no_live_session"},
	{domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{domain.ErrPlayerNotFound, http.StatusNotFound, "player_not_found"},
	{domain.ErrQuizNotFound, http.StatusNotFound, "quiz_not_found"},
	{domain.ErrQuestionNotFound, http.StatusNotFound, "question_not_found"},
	{domain.ErrEmptyQuiz, http.StatusUnprocessableEntity, "empty_quiz"},
	{domain.ErrQuestionClosed, http.StatusConflict, "question_closed"},
	{domain.ErrAlreadyAnswered, http.StatusConflict, "already_answered"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrSessionEnded, http.StatusConflict, "session_ended"},
	{domain.ErrLastQuestion, http.StatusConflict, "last_question"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrAllocationExhausted, http.StatusServiceUnavailable, "allocation_exhausted"},
}

// classify maps an error to an HTTP status and a stable client-facing code.
func classify(err error) (int, apiError) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.status, apiError{Code: c.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, apiError{Code: "internal", Message: "internal error"}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
