package memory

import (
	"context"
	"sync"
	"time"

	"intel-quiz-service/internal/app"
	"intel-quiz-service/internal/domain"
)

// Store is an in-memory implementation of the engine's catalog, ledger,
// aggregator and person interfaces, used when Postgres is not configured
// and in unit tests. A single mutex makes the check-then-insert of
// RecordIfAbsent and the completion transition atomic.
type Store struct {
	catalog domain.Catalog
	clock   func() time.Time

	mu      sync.Mutex
	people  map[string]*domain.Person
	records map[string]map[string]domain.AnswerRecord // personID -> questionID -> record
}

func NewStore(catalog domain.Catalog) *Store {
	return NewStoreWithClock(catalog, time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(catalog domain.Catalog, clock func() time.Time) *Store {
	return &Store{
		catalog: catalog,
		clock:   clock,
		people:  make(map[string]*domain.Person),
		records: make(map[string]map[string]domain.AnswerRecord),
	}
}

// CreatePerson seeds a person in the not_started state. Registration proper
// belongs to the auth collaborator; this exists for demos and tests.
func (s *Store) CreatePerson(_ context.Context, id, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[id]; ok {
		return nil
	}
	s.people[id] = &domain.Person{ID: id, DisplayName: displayName, State: domain.StateNotStarted}
	return nil
}

func (s *Store) Catalog(_ context.Context) (domain.Catalog, error) {
	return s.catalog, nil
}

func (s *Store) Get(_ context.Context, personID string) (domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[personID]
	if !ok {
		return domain.Person{}, domain.ErrPersonNotFound
	}
	return *person, nil
}

func (s *Store) MarkInProgress(_ context.Context, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[personID]
	if !ok {
		return domain.ErrPersonNotFound
	}
	if person.State == domain.StateNotStarted {
		person.State = domain.StateInProgress
	}
	return nil
}

func (s *Store) Complete(_ context.Context, personID string, finalScore int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[personID]
	if !ok {
		return 0, domain.ErrPersonNotFound
	}
	// Write-once: a concurrent completion keeps its frozen score.
	if person.State == domain.StateCompleted {
		if person.FinalScore != nil {
			return *person.FinalScore, nil
		}
		return 0, nil
	}
	frozen := finalScore
	person.State = domain.StateCompleted
	person.FinalScore = &frozen
	return frozen, nil
}

func (s *Store) RecordIfAbsent(_ context.Context, personID, questionID, submitted string) (app.LedgerResult, error) {
	question, ok := s.catalog.Get(questionID)
	if !ok {
		return app.LedgerResult{}, domain.ErrQuestionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[personID][questionID]; ok {
		return app.LedgerResult{Recorded: false}, nil
	}

	correct := submitted == question.Answer
	awarded := 0
	if correct {
		awarded = question.Points
	}
	if s.records[personID] == nil {
		s.records[personID] = make(map[string]domain.AnswerRecord)
	}
	s.records[personID][questionID] = domain.AnswerRecord{
		PersonID:     personID,
		QuestionID:   questionID,
		Submitted:    submitted,
		Correct:      correct,
		ScoreAwarded: awarded,
		SubmittedAt:  s.clock(),
	}
	return app.LedgerResult{Recorded: true, Correct: correct, Awarded: awarded}, nil
}

func (s *Store) AnsweredQuestionIDs(_ context.Context, personID string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answered := make(map[string]bool, len(s.records[personID]))
	for questionID := range s.records[personID] {
		answered[questionID] = true
	}
	return answered, nil
}

func (s *Store) RunningScore(_ context.Context, personID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, record := range s.records[personID] {
		total += record.ScoreAwarded
	}
	return total, nil
}

// Records returns a copy of a person's ledger entries, for tests.
func (s *Store) Records(personID string) []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, 0, len(s.records[personID]))
	for _, record := range s.records[personID] {
		out = append(out, record)
	}
	return out
}
