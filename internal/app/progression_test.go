package app_test

import (
	"context"
	"errors"
	"testing"

	"intel-quiz-service/internal/app"
	"intel-quiz-service/internal/domain"
	"intel-quiz-service/internal/infra/memory"
	"golang.org/x/sync/errgroup"
)

func newTestEngine(t *testing.T) (*app.ProgressionEngine, *memory.Store) {
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
	if err := store.CreatePerson(context.Background(), "p1", "Alice"); err != nil {
		t.Fatalf("create person: %v", err)
	}
	return app.NewProgressionEngine(store, store, store, store), store
}

func TestFullProgression(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	// First request serves the lowest-ordered question and starts the quiz.
	step, err := engine.NextQuestion(ctx, "p1")
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if step.Question == nil || step.Question.ID != "q1" {
		t.Fatalf("expected q1, got %+v", step)
	}
	if step.Question.Week != "Week A" || step.Question.Hint != "alphabet" {
		t.Fatalf("expected week name and hint on payload, got %+v", step.Question)
	}
	person, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get person: %v", err)
	}
	if person.State != domain.StateInProgress {
		t.Fatalf("expected in_progress after first request, got %s", person.State)
	}

	res, err := engine.SubmitAnswer(ctx, "p1", "q1", "ALPHA")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != domain.OutcomeRecorded || !res.Correct || res.Awarded != 10 || res.RunningScore != 10 {
		t.Fatalf("expected correct q1 worth 10, got %+v", res)
	}
	if res.Completed {
		t.Fatalf("quiz should not complete with q2 remaining")
	}

	step, err = engine.NextQuestion(ctx, "p1")
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if step.Question == nil || step.Question.ID != "q2" {
		t.Fatalf("expected q2, got %+v", step)
	}
	if step.RunningScore != 10 {
		t.Fatalf("expected running score 10, got %d", step.RunningScore)
	}

	// Wrong answer scores zero but still records and completes the catalog.
	res, err = engine.SubmitAnswer(ctx, "p1", "q2", "wrong")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Correct || res.Awarded != 0 || res.RunningScore != 10 {
		t.Fatalf("expected incorrect q2 leaving score 10, got %+v", res)
	}
	if !res.Completed || res.FinalScore != 10 {
		t.Fatalf("expected completion with final score 10, got %+v", res)
	}

	// Completion is terminal and the score stays frozen.
	step, err = engine.NextQuestion(ctx, "p1")
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if !step.Completed || step.FinalScore != 10 {
		t.Fatalf("expected frozen final score 10, got %+v", step)
	}
}

func TestAnswerIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	res, err := engine.SubmitAnswer(ctx, "p1", "q1", "alpha")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Correct || res.Awarded != 0 {
		t.Fatalf("expected case-sensitive mismatch, got %+v", res)
	}
}

func TestResubmissionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	if _, err := engine.SubmitAnswer(ctx, "p1", "q1", "ALPHA"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := engine.SubmitAnswer(ctx, "p1", "q1", "BETA")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.Outcome != domain.OutcomeAlreadyAnswered {
		t.Fatalf("expected already_answered, got %+v", res)
	}
	if res.RunningScore != 10 {
		t.Fatalf("resubmission must not change the score, got %d", res.RunningScore)
	}
	if records := store.Records("p1"); len(records) != 1 {
		t.Fatalf("expected exactly one ledger record, got %d", len(records))
	}
}

func TestLateSubmissionRejectedAfterCompletion(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	if _, err := engine.SubmitAnswer(ctx, "p1", "q1", "ALPHA"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := engine.SubmitAnswer(ctx, "p1", "q2", "BETA")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Completed || res.FinalScore != 30 {
		t.Fatalf("expected completion with 30, got %+v", res)
	}

	late, err := engine.SubmitAnswer(ctx, "p1", "q2", "BETA")
	if err != nil {
		t.Fatalf("late submit: %v", err)
	}
	if late.Outcome != domain.OutcomeQuizCompleted {
		t.Fatalf("expected quiz_completed outcome, got %+v", late)
	}
	if records := store.Records("p1"); len(records) != 2 {
		t.Fatalf("late submission must not write, got %d records", len(records))
	}
}

func TestUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	_, err := engine.SubmitAnswer(ctx, "p1", "q99", "ALPHA")
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question-not-found, got %v", err)
	}
	if records := store.Records("p1"); len(records) != 0 {
		t.Fatalf("unknown question must not write, got %d records", len(records))
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	if _, err := engine.SubmitAnswer(ctx, "p1", "   ", "ALPHA"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank question id, got %v", err)
	}
}

func TestUnknownPerson(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	if _, err := engine.NextQuestion(ctx, "ghost"); !errors.Is(err, domain.ErrPersonNotFound) {
		t.Fatalf("expected person-not-found, got %v", err)
	}
	if _, err := engine.SubmitAnswer(ctx, "ghost", "q1", "ALPHA"); !errors.Is(err, domain.ErrPersonNotFound) {
		t.Fatalf("expected person-not-found, got %v", err)
	}
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	const attempts = 16
	outcomes := make([]domain.SubmitOutcome, attempts)

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			res, err := engine.SubmitAnswer(ctx, "p1", "q1", "ALPHA")
			if err != nil {
				return err
			}
			outcomes[i] = res.Outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent submit: %v", err)
	}

	recorded := 0
	for _, outcome := range outcomes {
		if outcome == domain.OutcomeRecorded {
			recorded++
		}
	}
	if recorded != 1 {
		t.Fatalf("expected exactly one recorded outcome, got %d", recorded)
	}
	if records := store.Records("p1"); len(records) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(records))
	}
	score, err := store.RunningScore(ctx, "p1")
	if err != nil {
		t.Fatalf("running score: %v", err)
	}
	if score != 10 {
		t.Fatalf("expected score 10 after racing duplicates, got %d", score)
	}
}

func TestConcurrentCompletionFreezesOnce(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	if _, err := engine.SubmitAnswer(ctx, "p1", "q1", "ALPHA"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := engine.SubmitAnswer(ctx, "p1", "q2", "BETA"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			step, err := engine.NextQuestion(ctx, "p1")
			if err != nil {
				return err
			}
			if !step.Completed || step.FinalScore != 30 {
				return errors.New("expected frozen score 30")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent completion: %v", err)
	}

	person, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get person: %v", err)
	}
	if person.State != domain.StateCompleted || person.FinalScore == nil || *person.FinalScore != 30 {
		t.Fatalf("expected completed with frozen 30, got %+v", person)
	}
}
