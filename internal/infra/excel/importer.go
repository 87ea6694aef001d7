// Package excel imports quiz catalogs from spreadsheet workbooks, so course
// staff can maintain weeks and questions outside the database.
package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"intel-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Workbook layout: a "Weeks" sheet (id, name, order) and a "Questions"
// sheet (id, week id, order in week, prompt, hint, answer, points), both
// with a header row. Empty id cells get generated UUIDs.
const (
	weeksSheet     = "Weeks"
	questionsSheet = "Questions"
)

// Result summarizes one import.
type Result struct {
	Weeks     int
	Questions int
	Skipped   []string
}

// ReadCatalog parses a workbook into a validated catalog.
func ReadCatalog(r io.Reader) (domain.Catalog, *Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	result := &Result{}

	weekRows, err := f.GetRows(weeksSheet)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("read %s sheet: %w", weeksSheet, err)
	}
	var weeks []domain.Week
	weekIDByName := make(map[string]string)
	for i, row := range weekRows {
		if i == 0 || isBlank(row) {
			continue
		}
		week, err := parseWeek(row)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s row %d: %v", weeksSheet, i+1, err))
			continue
		}
		weeks = append(weeks, week)
		weekIDByName[strings.ToLower(week.Name)] = week.ID
		result.Weeks++
	}

	questionRows, err := f.GetRows(questionsSheet)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("read %s sheet: %w", questionsSheet, err)
	}
	var questions []domain.Question
	for i, row := range questionRows {
		if i == 0 || isBlank(row) {
			continue
		}
		question, err := parseQuestion(row, weekIDByName)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s row %d: %v", questionsSheet, i+1, err))
			continue
		}
		questions = append(questions, question)
		result.Questions++
	}

	catalog, err := domain.NewCatalog(weeks, questions)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("build catalog: %w", err)
	}
	return catalog, result, nil
}

func parseWeek(row []string) (domain.Week, error) {
	name := cell(row, 1)
	if name == "" {
		return domain.Week{}, fmt.Errorf("missing week name")
	}
	order, err := strconv.Atoi(cell(row, 2))
	if err != nil {
		return domain.Week{}, fmt.Errorf("bad order %q", cell(row, 2))
	}
	id := cell(row, 0)
	if id == "" {
		id = uuid.NewString()
	}
	return domain.Week{ID: id, Name: name, Order: order}, nil
}

func parseQuestion(row []string, weekIDByName map[string]string) (domain.Question, error) {
	weekRef := cell(row, 1)
	if weekRef == "" {
		return domain.Question{}, fmt.Errorf("missing week reference")
	}
	// The week column may carry either a week id or a week name.
	weekID := weekRef
	if id, ok := weekIDByName[strings.ToLower(weekRef)]; ok {
		weekID = id
	}

	order, err := strconv.Atoi(cell(row, 2))
	if err != nil {
		return domain.Question{}, fmt.Errorf("bad order %q", cell(row, 2))
	}
	prompt := cell(row, 3)
	if prompt == "" {
		return domain.Question{}, fmt.Errorf("missing prompt")
	}
	answer := cell(row, 5)
	if answer == "" {
		return domain.Question{}, fmt.Errorf("missing answer")
	}
	points := 0
	if raw := cell(row, 6); raw != "" {
		points, err = strconv.Atoi(raw)
		if err != nil || points < 0 {
			return domain.Question{}, fmt.Errorf("bad points %q", raw)
		}
	}
	id := cell(row, 0)
	if id == "" {
		id = uuid.NewString()
	}
	return domain.Question{
		ID:          id,
		WeekID:      weekID,
		OrderInWeek: order,
		Prompt:      prompt,
		Hint:        cell(row, 4),
		Answer:      answer,
		Points:      points,
	}, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
