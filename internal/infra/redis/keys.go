package redis

import "live-trivia-service/internal/domain"

// Key layout. Everything lives under the trivia: prefix.
const keyPrefix = "trivia:"

func sessionKey(sessionID string) string { return keyPrefix + "session:" + sessionID }

func joinCodeKey(code string) string { return keyPrefix + "joincode:" + code }

func playerKey(playerID string) string { return keyPrefix + "player:" + playerID }

func rosterKey(sessionID string) string { return sessionKey(sessionID) + ":players" }

func answerKey(sessionID, playerID, questionID string) string {
	return keyPrefix + "answer:" + domain.AnswerID(sessionID, playerID, questionID)
}

func questionAnswersKey(sessionID, questionID string) string {
	return sessionKey(sessionID) + ":question:" + questionID + ":answers"
}

func playerAnswersKey(sessionID, playerID string) string {
	return sessionKey(sessionID) + ":player:" + playerID + ":answers"
}

// sessionKeysKey is a set naming every key whose lifetime follows the session.
func sessionKeysKey(sessionID string) string { return sessionKey(sessionID) + ":keys" }

func statsKey(questionID string) string { return keyPrefix + "stats:" + questionID }

func quizKey(quizID string) string { return keyPrefix + "quiz:" + quizID }

func eventChannel(topic string) string { return keyPrefix + "events:" + topic }
