package domain

import "time"

// QuizState is the progression state of a person through the catalog.
type QuizState string

const (
	StateNotStarted QuizState = "not_started"
	StateInProgress QuizState = "in_progress"
	StateCompleted  QuizState = "completed"
)

// Person is a quiz taker. Credentials live with the auth collaborator;
// this service only sees the identity and progression fields.
type Person struct {
	ID          string
	DisplayName string
	State       QuizState
	// FinalScore is non-nil exactly when State is StateCompleted.
	FinalScore *int
}

// Week groups questions and defines the coarse delivery order.
type Week struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Order int    `json:"order" yaml:"order"`
}

// Question is one catalog entry. Global delivery order is
// (week order, OrderInWeek).
type Question struct {
	ID          string `json:"id" yaml:"id"`
	WeekID      string `json:"weekId" yaml:"weekId"`
	OrderInWeek int    `json:"orderInWeek" yaml:"orderInWeek"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	Hint        string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Answer      string `json:"answer" yaml:"answer"`
	Points      int    `json:"points" yaml:"points"`
}

// AnswerRecord is the immutable ledger entry for one submission.
// At most one exists per (PersonID, QuestionID).
type AnswerRecord struct {
	PersonID     string
	QuestionID   string
	Submitted    string
	Correct      bool
	ScoreAwarded int
	SubmittedAt  time.Time
}

// SubmitOutcome classifies the result of an answer submission.
type SubmitOutcome string

const (
	OutcomeRecorded        SubmitOutcome = "recorded"
	OutcomeAlreadyAnswered SubmitOutcome = "already_answered"
	OutcomeQuizCompleted   SubmitOutcome = "quiz_completed"
)

// SubmitResult is the synchronous feedback for one submission.
type SubmitResult struct {
	Outcome      SubmitOutcome `json:"outcome"`
	Correct      bool          `json:"correct"`
	Awarded      int           `json:"awarded"`
	RunningScore int           `json:"runningScore"`
	Completed    bool          `json:"completed"`
	FinalScore   int           `json:"finalScore,omitempty"`
}

// QuestionView is the deliverable form of a question: prompt, hint and
// week name, never the canonical answer.
type QuestionView struct {
	ID     string `json:"id"`
	Week   string `json:"week"`
	Prompt string `json:"prompt"`
	Hint   string `json:"hint,omitempty"`
}

// QuizStep is what a person sees on a state request: either the next
// question or the frozen final score.
type QuizStep struct {
	Question     *QuestionView `json:"question,omitempty"`
	RunningScore int           `json:"runningScore"`
	Completed    bool          `json:"completed"`
	FinalScore   int           `json:"finalScore,omitempty"`
}
