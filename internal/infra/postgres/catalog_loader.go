package postgres

import (
	"context"
	"fmt"

	"intel-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader reads the ordered question catalog from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

// LoadCatalog reads weeks and questions and builds a validated catalog.
func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, name, week_order FROM weeks`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("query weeks: %w", err)
	}
	defer rows.Close()

	var weeks []domain.Week
	for rows.Next() {
		var w domain.Week
		if err := rows.Scan(&w.ID, &w.Name, &w.Order); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan week: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("iterate weeks: %w", err)
	}
	rows.Close()

	rows, err = l.pool.Query(ctx, `
		SELECT id, week_id, order_in_week, prompt, COALESCE(hint, ''), answer, points
		FROM questions`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.WeekID, &q.OrderInWeek, &q.Prompt, &q.Hint, &q.Answer, &q.Points); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("iterate questions: %w", err)
	}

	return domain.NewCatalog(weeks, questions)
}

// Catalog implements app.CatalogSource directly; wrap with the Redis cache
// to avoid re-reading on every request.
func (l *CatalogLoader) Catalog(ctx context.Context) (domain.Catalog, error) {
	return l.LoadCatalog(ctx)
}

// ReplaceCatalog upserts weeks and questions inside one transaction, used by
// the seed and import commands. Existing answer records are untouched.
func (l *CatalogLoader) ReplaceCatalog(ctx context.Context, catalog domain.Catalog) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range catalog.Weeks() {
		if _, err := tx.Exec(ctx, `
			INSERT INTO weeks (id, name, week_order) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, week_order = EXCLUDED.week_order`,
			w.ID, w.Name, w.Order); err != nil {
			return fmt.Errorf("upsert week %s: %w", w.ID, err)
		}
	}
	for _, q := range catalog.Questions() {
		if _, err := tx.Exec(ctx, `
			INSERT INTO questions (id, week_id, order_in_week, prompt, hint, answer, points)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				week_id = EXCLUDED.week_id,
				order_in_week = EXCLUDED.order_in_week,
				prompt = EXCLUDED.prompt,
				hint = EXCLUDED.hint,
				answer = EXCLUDED.answer,
				points = EXCLUDED.points`,
			q.ID, q.WeekID, q.OrderInWeek, q.Prompt, q.Hint, q.Answer, q.Points); err != nil {
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}
	return tx.Commit(ctx)
}
