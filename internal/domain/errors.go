package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session code does not resolve to a live game.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuestions rejects starting a game whose quiz has an empty question list.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrNotHost rejects a host-only command issued by a regular participant.
	ErrNotHost = errors.New("command requires the host")
	// ErrParticipantNotFound is returned when a connection or rejoin token is unknown.
	ErrParticipantNotFound = errors.New("participant not found in game")
	// ErrInvalidAnswer indicates the submitted payload does not fit the question type.
	ErrInvalidAnswer = errors.New("invalid answer payload")
	// ErrAlreadyAnswered enforces at most one answer per participant per question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionNotActive rejects answers outside the question's open window.
	ErrQuestionNotActive = errors.New("question is not accepting answers")
	// ErrGameFinished rejects commands against a finished game.
	ErrGameFinished = errors.New("game already finished")
	// ErrInvalidTransition rejects a host command not valid in the current state.
	ErrInvalidTransition = errors.New("command not valid in current game state")
)
