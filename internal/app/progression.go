package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"intel-quiz-service/internal/domain"
)

// CatalogSource supplies the immutable question catalog (from memory,
// Postgres, or a Redis cache in front of Postgres).
type CatalogSource interface {
	Catalog(ctx context.Context) (domain.Catalog, error)
}

// LedgerResult is the outcome of a ledger write attempt. Recorded=false
// means a record already existed and nothing was written.
type LedgerResult struct {
	Recorded bool
	Correct  bool
	Awarded  int
}

// AnswerLedger is the durable, append-only record of submissions.
type AnswerLedger interface {
	// RecordIfAbsent atomically inserts at most one record per
	// (person, question). It returns domain.ErrQuestionNotFound when the
	// question id does not resolve, without side effects.
	RecordIfAbsent(ctx context.Context, personID, questionID, submitted string) (LedgerResult, error)
	// AnsweredQuestionIDs returns the ids of every question the person has
	// a record for, read in a single consistent snapshot.
	AnsweredQuestionIDs(ctx context.Context, personID string) (map[string]bool, error)
}

// ScoreAggregator computes running scores from the ledger.
type ScoreAggregator interface {
	RunningScore(ctx context.Context, personID string) (int, error)
}

// PersonStore persists each person's progression state and frozen score.
type PersonStore interface {
	Get(ctx context.Context, personID string) (domain.Person, error)
	// MarkInProgress flips not_started to in_progress; it is a no-op for any
	// other state.
	MarkInProgress(ctx context.Context, personID string) error
	// Complete freezes finalScore and moves the person to completed in one
	// atomic write. If a concurrent caller completed the person first, the
	// previously frozen score is returned instead of finalScore.
	Complete(ctx context.Context, personID string, finalScore int) (int, error)
}

// ProgressionEngine drives a person through the catalog: it serves the next
// unanswered question in global order, records answers exactly once, and
// performs the terminal transition to completed with score freezing.
type ProgressionEngine struct {
	source CatalogSource
	ledger AnswerLedger
	scores ScoreAggregator
	people PersonStore
}

func NewProgressionEngine(source CatalogSource, ledger AnswerLedger, scores ScoreAggregator, people PersonStore) *ProgressionEngine {
	return &ProgressionEngine{source: source, ledger: ledger, scores: scores, people: people}
}

// NextQuestion serves the current quiz step for a person: the lowest-ordered
// unanswered question, or the completion payload once none remain. The first
// call for a fresh person moves them to in_progress; the call that finds the
// catalog exhausted performs the completion transition.
func (e *ProgressionEngine) NextQuestion(ctx context.Context, personID string) (domain.QuizStep, error) {
	person, err := e.people.Get(ctx, personID)
	if err != nil {
		return domain.QuizStep{}, e.translate("get person", err)
	}

	if person.State == domain.StateCompleted {
		frozen := 0
		if person.FinalScore != nil {
			frozen = *person.FinalScore
		}
		return domain.QuizStep{Completed: true, FinalScore: frozen, RunningScore: frozen}, nil
	}

	catalog, err := e.source.Catalog(ctx)
	if err != nil {
		return domain.QuizStep{}, e.translate("load catalog", err)
	}
	if catalog.Len() == 0 {
		return domain.QuizStep{}, domain.ErrCatalogEmpty
	}

	if person.State == domain.StateNotStarted {
		if err := e.people.MarkInProgress(ctx, personID); err != nil {
			return domain.QuizStep{}, e.translate("mark in progress", err)
		}
	}

	answered, err := e.ledger.AnsweredQuestionIDs(ctx, personID)
	if err != nil {
		return domain.QuizStep{}, e.translate("read ledger", err)
	}

	score, err := e.scores.RunningScore(ctx, personID)
	if err != nil {
		return domain.QuizStep{}, e.translate("running score", err)
	}

	if question, ok := catalog.NextUnanswered(answered); ok {
		return domain.QuizStep{
			Question: &domain.QuestionView{
				ID:     question.ID,
				Week:   catalog.WeekName(question.WeekID),
				Prompt: question.Prompt,
				Hint:   question.Hint,
			},
			RunningScore: score,
		}, nil
	}

	frozen, err := e.people.Complete(ctx, personID, score)
	if err != nil {
		return domain.QuizStep{}, e.translate("complete quiz", err)
	}
	return domain.QuizStep{Completed: true, FinalScore: frozen, RunningScore: frozen}, nil
}

// SubmitAnswer records one answer at most once and reports the outcome.
// Submissions after completion are rejected without touching the ledger.
func (e *ProgressionEngine) SubmitAnswer(ctx context.Context, personID, questionID, submitted string) (domain.SubmitResult, error) {
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return domain.SubmitResult{}, domain.ErrValidation
	}
	submitted = strings.TrimSpace(submitted)

	person, err := e.people.Get(ctx, personID)
	if err != nil {
		return domain.SubmitResult{}, e.translate("get person", err)
	}

	if person.State == domain.StateCompleted {
		frozen := 0
		if person.FinalScore != nil {
			frozen = *person.FinalScore
		}
		return domain.SubmitResult{
			Outcome:      domain.OutcomeQuizCompleted,
			RunningScore: frozen,
			Completed:    true,
			FinalScore:   frozen,
		}, nil
	}

	if person.State == domain.StateNotStarted {
		if err := e.people.MarkInProgress(ctx, personID); err != nil {
			return domain.SubmitResult{}, e.translate("mark in progress", err)
		}
	}

	res, err := e.ledger.RecordIfAbsent(ctx, personID, questionID, submitted)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			log.Printf("submission for unknown question %q by person %q", questionID, personID)
			return domain.SubmitResult{}, err
		}
		return domain.SubmitResult{}, e.translate("record answer", err)
	}

	score, err := e.scores.RunningScore(ctx, personID)
	if err != nil {
		return domain.SubmitResult{}, e.translate("running score", err)
	}

	if !res.Recorded {
		return domain.SubmitResult{
			Outcome:      domain.OutcomeAlreadyAnswered,
			RunningScore: score,
		}, nil
	}

	result := domain.SubmitResult{
		Outcome:      domain.OutcomeRecorded,
		Correct:      res.Correct,
		Awarded:      res.Awarded,
		RunningScore: score,
	}

	catalog, err := e.source.Catalog(ctx)
	if err != nil {
		return domain.SubmitResult{}, e.translate("load catalog", err)
	}
	answered, err := e.ledger.AnsweredQuestionIDs(ctx, personID)
	if err != nil {
		return domain.SubmitResult{}, e.translate("read ledger", err)
	}
	if _, remaining := catalog.NextUnanswered(answered); !remaining {
		frozen, err := e.people.Complete(ctx, personID, score)
		if err != nil {
			return domain.SubmitResult{}, e.translate("complete quiz", err)
		}
		result.Completed = true
		result.FinalScore = frozen
	}
	return result, nil
}

// translate keeps domain sentinels intact and wraps everything else as a
// StorageError so no raw driver error crosses the engine boundary.
func (e *ProgressionEngine) translate(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrPersonNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrValidation):
		return err
	default:
		log.Printf("storage failure during %s: %v", op, err)
		return domain.NewStorageError(op, err)
	}
}
