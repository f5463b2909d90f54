package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

// WSHandler is the broadcast gateway: it upgrades connections, feeds inbound
// events into the game service, and fans session events back out. It never
// mutates session state itself.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.GameService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string        `json:"questionId"`
	Payload    domain.Answer `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type joinedPayload struct {
	GameID        string `json:"gameId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	IsHost        bool   `json:"isHost"`
	RejoinToken   string `json:"rejoinToken"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the connection's event loop.
// Identity comes from query params: code, name, avatar, rejoinToken, and for
// the host role=host&quizId=... The client is expected to send JOIN first.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	name := r.URL.Query().Get("name")
	avatar := r.URL.Query().Get("avatar")
	token := r.URL.Query().Get("rejoinToken")
	isHost := r.URL.Query().Get("role") == "host"
	quizID := r.URL.Query().Get("quizId")

	if code == "" || name == "" {
		http.Error(w, "missing code or name", http.StatusBadRequest)
		return
	}
	if isHost && quizID == "" {
		http.Error(w, "host requires quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	send := make(chan outboundMessage, 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("conn", connID).Msg("ws write error")
				return
			}
		}
	}()

	joined := false
	var cancelUpdates func()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "JOIN":
			if joined {
				send <- errorMessage("already joined")
				continue
			}
			var p domain.Participant
			if isHost {
				p, err = h.service.Host(r.Context(), code, quizID, name, avatar, token, connID)
			} else {
				p, err = h.service.Join(r.Context(), code, name, avatar, token, connID)
			}
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}

			updates, cancel, err := h.service.Subscribe(code)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			cancelUpdates = cancel
			joined = true

			go func() {
				defer close(updatesDone)
				for {
					select {
					case ev, ok := <-updates:
						if !ok {
							return
						}
						select {
						case send <- outboundMessage{Type: string(ev.Type), Payload: ev.Payload}:
						case <-closeSignals:
							return
						}
					case <-closeSignals:
						return
					}
				}
			}()

			send <- outboundMessage{Type: "JOINED", Payload: joinedPayload{
				GameID:        code,
				ParticipantID: p.ID,
				DisplayName:   p.DisplayName,
				IsHost:        p.IsHost,
				RejoinToken:   p.ExternalID,
			}}

		case "START":
			if !requireJoined(joined, send) {
				continue
			}
			if err := h.service.Start(code, connID); err != nil {
				send <- errorMessage(err.Error())
			}

		case "ANSWER":
			if !requireJoined(joined, send) {
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			if err := h.service.SubmitAnswer(r.Context(), code, connID, payload.QuestionID, payload.Payload); err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage{Type: "ANSWER_ACK", Payload: map[string]string{"questionId": payload.QuestionID}}

		case "NEXT_QUESTION":
			if !requireJoined(joined, send) {
				continue
			}
			if err := h.service.Next(code, connID); err != nil {
				send <- errorMessage(err.Error())
			}

		case "RESET_QUESTION":
			if !requireJoined(joined, send) {
				continue
			}
			if err := h.service.ResetQuestion(r.Context(), code, connID); err != nil {
				send <- errorMessage(err.Error())
			}

		default:
			send <- errorMessage("unsupported message type")
		}
	}

	if joined {
		h.service.Leave(code, connID)
		cancelUpdates()
	}
	close(closeSignals)
	if joined {
		<-updatesDone
	}
	close(send)
	<-writerDone
}

func requireJoined(joined bool, send chan<- outboundMessage) bool {
	if !joined {
		send <- errorMessage("join first")
	}
	return joined
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: string(app.EventError), Payload: errorPayload{Message: msg}}
}
