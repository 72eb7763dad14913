package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
)

type WSHandler struct {
	sessions *app.SessionService
	players  *app.PlayerService
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions *app.SessionService, players *app.PlayerService) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		players:  players,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID  string `json:"questionId"`
	AnswerIndex int    `json:"answerIndex"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type joinedPayload struct {
	Player  domain.Player `json:"player"`
	Session sessionView   `json:"session"`
}

// wsConn serializes writes through a single writer goroutine.
type wsConn struct {
	ws         *websocket.Conn
	send       chan outboundMessage
	writerDone chan struct{}
}

func newWSConn(ws *websocket.Conn) *wsConn {
	c := &wsConn{
		ws:         ws,
		send:       make(chan outboundMessage, 16),
		writerDone: make(chan struct{}),
	}
	go func() {
		defer close(c.writerDone)
		for msg := range c.send {
			if err := ws.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				_ = ws.Close()
				for range c.send {
				}
				return
			}
		}
	}()
	return c
}

// emit queues a message unless ctx is done.
func (c *wsConn) emit(ctx context.Context, typ string, payload any) bool {
	select {
	case c.send <- outboundMessage{Type: typ, Payload: payload}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *wsConn) emitError(ctx context.Context, err error) {
	_, body := classify(err)
	c.emit(ctx, "error", body)
}

// close must be called once every producer has stopped.
func (c *wsConn) close() {
	close(c.send)
	<-c.writerDone
	_ = c.ws.Close()
}

// ServeQuizmaster streams the session, roster and current-question answers to the quizmaster, accepts control
// messages, and runs the auto-close watcher for as long as the connection is open.
func (h *WSHandler) ServeQuizmaster(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "missing sessionId"})
		return
	}
	session, found, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil || !found {
		if err == nil {
			err = domain.ErrSessionNotFound
		}
		writeError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	conn := newWSConn(ws)
	ctx, cancel := context.WithCancel(r.Context())

	var producers sync.WaitGroup
	producers.Add(1)
	go func() {
		defer producers.Done()
		h.streamQuizmaster(ctx, conn, sessionID)
	}()
	if session.AutoCloseOnTimerEnd {
		producers.Add(1)
		go func() {
			defer producers.Done()
			if err := h.sessions.WatchDeadline(ctx, sessionID); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("deadline watcher stopped")
			}
		}()
	}

	log.Info().Str("session_id", sessionID).Msg("quizmaster connected")
	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			break
		}
		var opErr error
		switch inbound.Type {
		case "start":
			_, opErr = h.sessions.Start(ctx, sessionID)
		case "openQuestion":
			_, opErr = h.sessions.OpenQuestion(ctx, sessionID)
		case "closeQuestion":
			_, opErr = h.sessions.CloseQuestion(ctx, sessionID)
		case "advance":
			_, opErr = h.sessions.Advance(ctx, sessionID)
		case "end":
			_, opErr = h.sessions.End(ctx, sessionID)
		default:
			conn.emit(ctx, "error", apiError{Code: "unsupported_message", Message: "unsupported message type"})
			continue
		}
		if opErr != nil {
			conn.emitError(ctx, opErr)
		}
	}

	cancel()
	producers.Wait()
	conn.close()
	log.Info().Str("session_id", sessionID).Msg("quizmaster disconnected")
}

func (h *WSHandler) streamQuizmaster(ctx context.Context, conn *wsConn, sessionID string) {
	sessions, stopSessions := h.sessions.SubscribeToSession(ctx, sessionID)
	defer stopSessions()
	roster, stopRoster := h.players.SubscribeToPlayers(ctx, sessionID)
	defer stopRoster()

	var (
		answers     <-chan []domain.Answer
		stopAnswers = func() {}
		questionID  string
	)
	defer func() { stopAnswers() }()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sessions:
			if !ok {
				return
			}
			if snap == nil {
				conn.emit(ctx, "session", nil)
				continue
			}
			view := newSessionView(ctx, h.sessions, *snap, h.sessions.Clock().Now(), true)
			if !conn.emit(ctx, "session", view) {
				return
			}
			if next := view.questionID(); next != questionID {
				stopAnswers()
				questionID = next
				answers, stopAnswers = nil, func() {}
				if next != "" {
					answers, stopAnswers = h.players.SubscribeToAnswers(ctx, sessionID, next)
				}
			}
		case list, ok := <-roster:
			if !ok {
				return
			}
			if !conn.emit(ctx, "players", list) {
				return
			}
		case list, ok := <-answers:
			if !ok {
				answers = nil
				continue
			}
			payload := answersPayload{QuestionID: questionID, Answers: list, Summary: domain.Summarize(questionID, list)}
			if !conn.emit(ctx, "answers", payload) {
				return
			}
		}
	}
}

// ServePlayer joins a player by code and name, or reattaches an existing player by sessionId and playerId,
// then streams the session and roster and accepts answers.
func (h *WSHandler) ServePlayer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, name := q.Get("code"), q.Get("name")
	sessionID, playerID := q.Get("sessionId"), q.Get("playerId")
	if (code == "" || name == "") && (sessionID == "" || playerID == "") {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "need code and name, or sessionId and playerId"})
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	conn := newWSConn(ws)
	ctx, cancel := context.WithCancel(r.Context())

	player, err := h.attachPlayer(ctx, code, name, sessionID, playerID)
	if err != nil {
		conn.emitError(ctx, err)
		cancel()
		conn.close()
		return
	}
	session, _, err := h.sessions.GetSession(ctx, player.SessionID)
	if err != nil {
		conn.emitError(ctx, err)
		cancel()
		conn.close()
		return
	}
	conn.emit(ctx, "joined", joinedPayload{
		Player:  player,
		Session: newSessionView(ctx, h.sessions, session, h.sessions.Clock().Now(), false),
	})

	var producers sync.WaitGroup
	producers.Add(1)
	go func() {
		defer producers.Done()
		h.streamPlayer(ctx, conn, player)
	}()

	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				conn.emit(ctx, "error", apiError{Code: "bad_request", Message: "invalid answer payload"})
				continue
			}
			answer, err := h.players.SubmitAnswer(ctx, player.SessionID, player.ID, payload.QuestionID, payload.AnswerIndex)
			if err != nil {
				conn.emitError(ctx, err)
				continue
			}
			conn.emit(ctx, "answerResult", answer)
		default:
			conn.emit(ctx, "error", apiError{Code: "unsupported_message", Message: "unsupported message type"})
		}
	}

	cancel()
	producers.Wait()
	conn.close()
}

func (h *WSHandler) attachPlayer(ctx context.Context, code, name, sessionID, playerID string) (domain.Player, error) {
	if sessionID != "" && playerID != "" {
		player, found, err := h.players.GetPlayer(ctx, sessionID, playerID)
		if err != nil {
			return domain.Player{}, err
		}
		if !found {
			return domain.Player{}, domain.ErrPlayerNotFound
		}
		log.Info().Str("session_id", sessionID).Str("player_id", playerID).Msg("player reconnected")
		return player, nil
	}
	return h.players.JoinByCode(ctx, code, name)
}

func (h *WSHandler) streamPlayer(ctx context.Context, conn *wsConn, player domain.Player) {
	sessions, stopSessions := h.sessions.SubscribeToSession(ctx, player.SessionID)
	defer stopSessions()
	roster, stopRoster := h.players.SubscribeToPlayers(ctx, player.SessionID)
	defer stopRoster()

	questionID := ""
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sessions:
			if !ok {
				return
			}
			if snap == nil {
				continue
			}
			view := newSessionView(ctx, h.sessions, *snap, h.sessions.Clock().Now(), false)
			if !conn.emit(ctx, "session", view) {
				return
			}
			if next := view.questionID(); next != questionID {
				questionID = next
				h.emitOwnAnswer(ctx, conn, player, next)
			}
		case list, ok := <-roster:
			if !ok {
				return
			}
			if !conn.emit(ctx, "players", list) {
				return
			}
		}
	}
}

// emitOwnAnswer restores a reconnecting player's answer to the current question.
func (h *WSHandler) emitOwnAnswer(ctx context.Context, conn *wsConn, player domain.Player, questionID string) {
	if questionID == "" {
		return
	}
	answer, found, err := h.players.GetOwnAnswer(ctx, player.SessionID, player.ID, questionID)
	if err != nil {
		log.Warn().Err(err).Str("player_id", player.ID).Msg("load own answer")
		return
	}
	if found {
		conn.emit(ctx, "ownAnswer", answer)
	}
}
