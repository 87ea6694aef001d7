package http

import (
	"encoding/json"
	"log"
	"net/http"

	"intel-quiz-service/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler drives an interactive quiz session over a websocket: the client
// asks for the next question and submits answers, the server replies with
// question, feedback and completion events.
type WSHandler struct {
	engine   *app.ProgressionEngine
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.ProgressionEngine) *WSHandler {
	return &WSHandler{
		engine: engine,
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

type wsAnswerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the session loop. The person id
// comes from the query string, placed there by the auth collaborator.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	personID := r.URL.Query().Get("personId")
	if personID == "" {
		http.Error(w, "missing personId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Open with the caller's current step, like the page the original served
	// on every visit.
	h.sendStep(conn, r, personID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "next":
			h.sendStep(conn, r, personID)
		case "answer":
			var payload wsAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			result, err := h.engine.SubmitAnswer(r.Context(), personID, payload.QuestionID, payload.Answer)
			if err != nil {
				_, msg := statusFor(err)
				h.sendError(conn, msg)
				continue
			}
			h.send(conn, outboundMessage[submitResponse]{
				Type:    "answerResult",
				Payload: submitResponse{SubmitResult: result, Message: FeedbackMessage(result)},
			})
			if result.Completed {
				h.sendStep(conn, r, personID)
			}
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) sendStep(conn *websocket.Conn, r *http.Request, personID string) {
	step, err := h.engine.NextQuestion(r.Context(), personID)
	if err != nil {
		_, msg := statusFor(err)
		h.sendError(conn, msg)
		return
	}
	kind := "question"
	if step.Completed {
		kind = "completed"
	}
	h.send(conn, outboundMessage[any]{Type: kind, Payload: step})
}

func (h *WSHandler) sendError(conn *websocket.Conn, msg string) {
	h.send(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: msg}})
}

func (h *WSHandler) send(conn *websocket.Conn, msg any) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
