package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
)

// Defaults fill in optional fields of a create-session request.
type Defaults struct {
	TimerSeconds int
	AutoClose    bool
}

// APIHandler serves the JSON endpoints.
type APIHandler struct {
	sessions *app.SessionService
	players  *app.PlayerService
	defaults Defaults
}

func NewAPIHandler(sessions *app.SessionService, players *app.PlayerService, defaults Defaults) *APIHandler {
	return &APIHandler{sessions: sessions, players: players, defaults: defaults}
}

// Register mounts the endpoints on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.createSession)
	mux.HandleFunc("GET /api/sessions/{sessionID}", h.getSession)
	mux.HandleFunc("POST /api/sessions/{sessionID}/{action}", h.control)
	mux.HandleFunc("GET /api/live-sessions/{code}", h.findLiveSession)
	mux.HandleFunc("POST /api/join", h.join)
	mux.HandleFunc("POST /api/sessions/{sessionID}/answers", h.submitAnswer)
	mux.HandleFunc("GET /api/sessions/{sessionID}/players/{playerID}/answers", h.playerAnswers)
	mux.HandleFunc("GET /api/sessions/{sessionID}/players/{playerID}/answers/{questionID}", h.ownAnswer)
	mux.HandleFunc("GET /api/sessions/{sessionID}/questions/{questionID}/summary", h.answerSummary)
	mux.HandleFunc("GET /api/sessions/{sessionID}/results", h.results)
	mux.HandleFunc("GET /api/questions/{questionID}/statistics", h.statistics)
}

type createSessionRequest struct {
	QuizID              string `json:"quizId"`
	TimerDuration       *int   `json:"timerDuration"`
	AutoCloseOnTimerEnd *bool  `json:"autoCloseOnTimerEnd"`
}

func (h *APIHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuizID == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "quizId is required"})
		return
	}
	timer := h.defaults.TimerSeconds
	if req.TimerDuration != nil {
		timer = *req.TimerDuration
	}
	autoClose := h.defaults.AutoClose
	if req.AutoCloseOnTimerEnd != nil {
		autoClose = *req.AutoCloseOnTimerEnd
	}

	session, err := h.sessions.CreateSession(r.Context(), req.QuizID, timer, autoClose)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(r, session, true))
}

func (h *APIHandler) getSession(w http.ResponseWriter, r *http.Request) {
	session, found, err := h.sessions.GetSession(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, session, false))
}

func (h *APIHandler) findLiveSession(w http.ResponseWriter, r *http.Request) {
	session, found, err := h.sessions.FindLiveSession(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, domain.ErrNoLiveSession)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, session, false))
}

func (h *APIHandler) control(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	var (
		session domain.Session
		err     error
	)
	switch r.PathValue("action") {
	case "start":
		session, err = h.sessions.Start(r.Context(), sessionID)
	case "open":
		session, err = h.sessions.OpenQuestion(r.Context(), sessionID)
	case "close":
		session, err = h.sessions.CloseQuestion(r.Context(), sessionID)
	case "advance":
		session, err = h.sessions.Advance(r.Context(), sessionID)
	case "end":
		session, err = h.sessions.End(r.Context(), sessionID)
	default:
		writeJSON(w, http.StatusNotFound, apiError{Code: "unknown_action", Message: "unknown session action"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, session, true))
}

type joinRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *APIHandler) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decode(w, r, &req) {
		return
	}
	player, err := h.players.JoinByCode(r.Context(), req.Code, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

type submitAnswerRequest struct {
	PlayerID    string `json:"playerId"`
	QuestionID  string `json:"questionId"`
	AnswerIndex *int   `json:"answerIndex"`
}

func (h *APIHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" || req.QuestionID == "" || req.AnswerIndex == nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "playerId, questionId and answerIndex are required"})
		return
	}
	answer, err := h.players.SubmitAnswer(r.Context(), r.PathValue("sessionID"), req.PlayerID, req.QuestionID, *req.AnswerIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

func (h *APIHandler) playerAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := h.players.GetAnswersByPlayer(r.Context(), r.PathValue("sessionID"), r.PathValue("playerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (h *APIHandler) ownAnswer(w http.ResponseWriter, r *http.Request) {
	answer, found, err := h.players.GetOwnAnswer(r.Context(), r.PathValue("sessionID"), r.PathValue("playerID"), r.PathValue("questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, apiError{Code: "answer_not_found", Message: "no answer for this question"})
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *APIHandler) answerSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.players.AnswerSummary(r.Context(), r.PathValue("sessionID"), r.PathValue("questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *APIHandler) results(w http.ResponseWriter, r *http.Request) {
	if _, found, err := h.sessions.GetSession(r.Context(), r.PathValue("sessionID")); err != nil || !found {
		if err == nil {
			err = domain.ErrSessionNotFound
		}
		writeError(w, err)
		return
	}
	results, err := h.players.Results(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *APIHandler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, found, err := h.players.QuestionStatistics(r.Context(), r.PathValue("questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, apiError{Code: "statistics_not_found", Message: "question has no recorded answers"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// view renders a session; reveal exposes the open question's correct index and is set only on
// quizmaster control responses.
func (h *APIHandler) view(r *http.Request, session domain.Session, reveal bool) sessionView {
	return newSessionView(r.Context(), h.sessions, session, h.sessions.Clock().Now(), reveal)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, apiError{Code: "too_large", Message: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid JSON body"})
		return false
	}
	return true
}
