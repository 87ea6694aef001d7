package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"intel-quiz-service/internal/app"
	"intel-quiz-service/internal/domain"
)

// personHeader carries the authenticated person id, supplied by the
// session/auth layer in front of this service. The engine trusts it.
const personHeader = "X-Person-ID"

// Handler exposes the quiz progression engine over JSON endpoints.
type Handler struct {
	engine *app.ProgressionEngine
}

func NewHandler(engine *app.ProgressionEngine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts the quiz routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/quiz/state", h.QuizState)
	mux.HandleFunc("/quiz/answer", h.SubmitAnswer)
}

type submitRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type submitResponse struct {
	domain.SubmitResult
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// QuizState returns the next question for the caller, or the completion
// payload with the frozen final score.
func (h *Handler) QuizState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	personID := r.Header.Get(personHeader)
	if personID == "" {
		writeError(w, http.StatusUnauthorized, "missing person identity")
		return
	}

	step, err := h.engine.NextQuestion(r.Context(), personID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// SubmitAnswer records an answer and returns synchronous feedback.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	personID := r.Header.Get(personHeader)
	if personID == "" {
		writeError(w, http.StatusUnauthorized, "missing person identity")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.SubmitAnswer(r.Context(), personID, req.QuestionID, req.Answer)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{SubmitResult: result, Message: FeedbackMessage(result)})
}

// FeedbackMessage renders the user-facing notice for a submission outcome.
func FeedbackMessage(result domain.SubmitResult) string {
	switch result.Outcome {
	case domain.OutcomeAlreadyAnswered:
		return "You have already answered this question."
	case domain.OutcomeQuizCompleted:
		return fmt.Sprintf("You've already completed the quiz. Your final score is %d.", result.FinalScore)
	}
	if result.Correct {
		return fmt.Sprintf("Correct answer! Well done, Agent! Points awarded: %d", result.Awarded)
	}
	return "That wasn't the intel we were looking for. No points for this one."
}

// statusFor maps engine errors to client-safe status codes and messages.
// Storage detail never reaches the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPersonNotFound):
		return http.StatusNotFound, "unknown person"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "missing or malformed question id"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusUnprocessableEntity, "there was a problem with your submission"
	case errors.Is(err, domain.ErrCatalogEmpty):
		return http.StatusServiceUnavailable, "the quiz is not available yet"
	case domain.IsStorageError(err):
		return http.StatusServiceUnavailable, "temporary error, please try again"
	default:
		log.Printf("unexpected handler error: %v", err)
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
