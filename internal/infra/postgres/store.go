package postgres

import (
	"context"
	"errors"
	"fmt"

	"intel-quiz-service/internal/app"
	"intel-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is the Postgres-backed ledger, aggregator and person store. All
// correctness-critical writes lean on constraints: the primary key on
// (person_id, question_id) makes duplicate scoring impossible, and the
// completion transition is a single conditional UPDATE so the state flip
// and the score freeze land together or not at all.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RecordIfAbsent inserts at most one ledger row for (person, question).
// Correctness and awarded points are computed in the same statement from the
// question row, so two racing submissions can never both score.
func (s *Store) RecordIfAbsent(ctx context.Context, personID, questionID, submitted string) (app.LedgerResult, error) {
	var correct bool
	var awarded int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO answer_records (person_id, question_id, submitted_text, is_correct, score_awarded)
		SELECT $1, q.id, $3, q.answer = $3, CASE WHEN q.answer = $3 THEN q.points ELSE 0 END
		FROM questions q
		WHERE q.id = $2
		ON CONFLICT (person_id, question_id) DO NOTHING
		RETURNING is_correct, score_awarded`,
		personID, questionID, submitted,
	).Scan(&correct, &awarded)
	if err == nil {
		return app.LedgerResult{Recorded: true, Correct: correct, Awarded: awarded}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return app.LedgerResult{}, fmt.Errorf("record answer: %w", err)
	}

	// No row came back: either the question does not exist or the person
	// already has a record for it.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, questionID,
	).Scan(&exists); err != nil {
		return app.LedgerResult{}, fmt.Errorf("check question: %w", err)
	}
	if !exists {
		return app.LedgerResult{}, domain.ErrQuestionNotFound
	}
	return app.LedgerResult{Recorded: false}, nil
}

func (s *Store) AnsweredQuestionIDs(ctx context.Context, personID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id FROM answer_records WHERE person_id = $1`, personID)
	if err != nil {
		return nil, fmt.Errorf("query answered: %w", err)
	}
	defer rows.Close()

	answered := make(map[string]bool)
	for rows.Next() {
		var questionID string
		if err := rows.Scan(&questionID); err != nil {
			return nil, fmt.Errorf("scan answered: %w", err)
		}
		answered[questionID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answered: %w", err)
	}
	return answered, nil
}

func (s *Store) RunningScore(ctx context.Context, personID string) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(score_awarded), 0) FROM answer_records WHERE person_id = $1`,
		personID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum score: %w", err)
	}
	return total, nil
}

func (s *Store) Get(ctx context.Context, personID string) (domain.Person, error) {
	person := domain.Person{ID: personID}
	var state string
	err := s.pool.QueryRow(ctx,
		`SELECT display_name, quiz_state, final_score FROM people WHERE id = $1`,
		personID,
	).Scan(&person.DisplayName, &state, &person.FinalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Person{}, domain.ErrPersonNotFound
	}
	if err != nil {
		return domain.Person{}, fmt.Errorf("get person: %w", err)
	}
	person.State = domain.QuizState(state)
	return person, nil
}

func (s *Store) MarkInProgress(ctx context.Context, personID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE people SET quiz_state = 'in_progress' WHERE id = $1 AND quiz_state = 'not_started'`,
		personID)
	if err != nil {
		return fmt.Errorf("mark in progress: %w", err)
	}
	return nil
}

// Complete freezes the score and flips the state in one statement. The
// quiz_state guard makes the write idempotent under racing callers: exactly
// one UPDATE lands, and losers read back the winner's frozen score.
func (s *Store) Complete(ctx context.Context, personID string, finalScore int) (int, error) {
	var frozen int
	err := s.pool.QueryRow(ctx, `
		UPDATE people SET quiz_state = 'completed', final_score = $2
		WHERE id = $1 AND quiz_state <> 'completed'
		RETURNING final_score`,
		personID, finalScore,
	).Scan(&frozen)
	if err == nil {
		return frozen, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("complete quiz: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT final_score FROM people WHERE id = $1`, personID,
	).Scan(&frozen)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrPersonNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read frozen score: %w", err)
	}
	return frozen, nil
}

// CreatePerson seeds a not_started person row; existing rows are left alone.
func (s *Store) CreatePerson(ctx context.Context, id, displayName string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO people (id, display_name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, displayName)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}
