package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"intel-quiz-service/internal/app"
	"intel-quiz-service/internal/domain"
	"intel-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog, err := domain.NewCatalog(
		[]domain.Week{
			{ID: "week-a", Name: "Week A", Order: 1},
			{ID: "week-b", Name: "Week B", Order: 2},
		},
		[]domain.Question{
			{ID: "q1", WeekID: "week-a", OrderInWeek: 1, Prompt: "First callsign?", Hint: "alphabet", Answer: "ALPHA", Points: 10},
			{ID: "q2", WeekID: "week-b", OrderInWeek: 1, Prompt: "Second callsign?", Answer: "BETA", Points: 20},
		})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	store := memory.NewStore(catalog)
	_ = store.CreatePerson(context.Background(), "p1", "Alice")
	engine := app.NewProgressionEngine(store, store, store, store)

	mux := http.NewServeMux()
	NewHandler(engine).Register(mux)
	mux.HandleFunc("/quiz/ws", NewWSHandler(engine).ServeWS)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func getState(t *testing.T, server *httptest.Server, personID string) (int, domain.QuizStep) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/quiz/state", nil)
	if personID != "" {
		req.Header.Set(personHeader, personID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	defer resp.Body.Close()
	var step domain.QuizStep
	_ = json.NewDecoder(resp.Body).Decode(&step)
	return resp.StatusCode, step
}

func postAnswer(t *testing.T, server *httptest.Server, personID, questionID, answer string) (int, submitResponse) {
	t.Helper()
	body, _ := json.Marshal(submitRequest{QuestionID: questionID, Answer: answer})
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/quiz/answer", bytes.NewReader(body))
	req.Header.Set(personHeader, personID)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post answer: %v", err)
	}
	defer resp.Body.Close()
	var result submitResponse
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestQuizWalkthroughOverHTTP(t *testing.T) {
	server := newTestServer(t)

	status, step := getState(t, server, "p1")
	if status != http.StatusOK || step.Question == nil || step.Question.ID != "q1" {
		t.Fatalf("expected q1, got status=%d step=%+v", status, step)
	}
	if step.Question.Week != "Week A" || step.Question.Hint != "alphabet" {
		t.Fatalf("expected week and hint on payload, got %+v", step.Question)
	}

	status, result := postAnswer(t, server, "p1", "q1", "ALPHA")
	if status != http.StatusOK || !result.Correct || result.Awarded != 10 {
		t.Fatalf("expected correct for 10, got status=%d result=%+v", status, result)
	}

	status, step = getState(t, server, "p1")
	if status != http.StatusOK || step.Question == nil || step.Question.ID != "q2" {
		t.Fatalf("expected q2, got %+v", step)
	}

	status, result = postAnswer(t, server, "p1", "q2", "wrong")
	if status != http.StatusOK || result.Correct || result.RunningScore != 10 {
		t.Fatalf("expected incorrect leaving 10, got %+v", result)
	}
	if !result.Completed || result.FinalScore != 10 {
		t.Fatalf("expected completion payload, got %+v", result)
	}

	status, step = getState(t, server, "p1")
	if status != http.StatusOK || !step.Completed || step.FinalScore != 10 {
		t.Fatalf("expected frozen final score 10, got %+v", step)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	server := newTestServer(t)

	if status, _ := getState(t, server, ""); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", status)
	}
	if status, _ := getState(t, server, "ghost"); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown person, got %d", status)
	}
	if status, _ := postAnswer(t, server, "p1", "", "ALPHA"); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank question id, got %d", status)
	}
	if status, _ := postAnswer(t, server, "p1", "q99", "ALPHA"); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown question, got %d", status)
	}
}

func TestResubmitReportsAlreadyAnswered(t *testing.T) {
	server := newTestServer(t)

	if status, _ := postAnswer(t, server, "p1", "q1", "ALPHA"); status != http.StatusOK {
		t.Fatalf("submit: status %d", status)
	}
	status, result := postAnswer(t, server, "p1", "q1", "ALPHA")
	if status != http.StatusOK || result.Outcome != domain.OutcomeAlreadyAnswered {
		t.Fatalf("expected already_answered, got status=%d result=%+v", status, result)
	}
	if result.Message == "" {
		t.Fatalf("expected informational message")
	}
}
