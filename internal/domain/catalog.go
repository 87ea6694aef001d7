package domain

import (
	"fmt"
	"sort"
)

// Catalog is the immutable, globally ordered question set. Questions are
// held sorted by (week order, order in week); that order is a strict total
// order, validated on construction, and drives delivery deterministically.
type Catalog struct {
	weeks     map[string]Week
	questions []Question
	byID      map[string]Question
}

// NewCatalog validates and orders the catalog. It rejects duplicate week
// orders, duplicate in-week question orders, questions referencing unknown
// weeks, and negative point values.
func NewCatalog(weeks []Week, questions []Question) (Catalog, error) {
	weekByID := make(map[string]Week, len(weeks))
	orderSeen := make(map[int]string, len(weeks))
	for _, w := range weeks {
		if _, ok := weekByID[w.ID]; ok {
			return Catalog{}, fmt.Errorf("duplicate week id %q", w.ID)
		}
		if other, ok := orderSeen[w.Order]; ok {
			return Catalog{}, fmt.Errorf("weeks %q and %q share order %d", other, w.ID, w.Order)
		}
		weekByID[w.ID] = w
		orderSeen[w.Order] = w.ID
	}

	byID := make(map[string]Question, len(questions))
	slotSeen := make(map[string]map[int]string, len(weeks))
	ordered := make([]Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := byID[q.ID]; ok {
			return Catalog{}, fmt.Errorf("duplicate question id %q", q.ID)
		}
		if _, ok := weekByID[q.WeekID]; !ok {
			return Catalog{}, fmt.Errorf("question %q references unknown week %q", q.ID, q.WeekID)
		}
		if q.Points < 0 {
			return Catalog{}, fmt.Errorf("question %q has negative points", q.ID)
		}
		if slotSeen[q.WeekID] == nil {
			slotSeen[q.WeekID] = make(map[int]string)
		}
		if other, ok := slotSeen[q.WeekID][q.OrderInWeek]; ok {
			return Catalog{}, fmt.Errorf("questions %q and %q share slot %d in week %q", other, q.ID, q.OrderInWeek, q.WeekID)
		}
		slotSeen[q.WeekID][q.OrderInWeek] = q.ID
		byID[q.ID] = q
		ordered = append(ordered, q)
	}

	sort.Slice(ordered, func(i, j int) bool {
		wi := weekByID[ordered[i].WeekID].Order
		wj := weekByID[ordered[j].WeekID].Order
		if wi != wj {
			return wi < wj
		}
		return ordered[i].OrderInWeek < ordered[j].OrderInWeek
	})

	return Catalog{weeks: weekByID, questions: ordered, byID: byID}, nil
}

// Get looks a question up by id.
func (c Catalog) Get(id string) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// WeekName resolves the display name of a question's week.
func (c Catalog) WeekName(weekID string) string {
	return c.weeks[weekID].Name
}

// Questions returns the catalog in global delivery order.
func (c Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Weeks returns the catalog's weeks sorted by order.
func (c Catalog) Weeks() []Week {
	out := make([]Week, 0, len(c.weeks))
	for _, w := range c.weeks {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Len is the number of questions in the catalog.
func (c Catalog) Len() int { return len(c.questions) }

// NextUnanswered returns the lowest-ordered question whose id is not in
// answered, or ok=false when every question has been answered. The caller
// supplies answered from a single ledger read so the result is consistent.
func (c Catalog) NextUnanswered(answered map[string]bool) (Question, bool) {
	for _, q := range c.questions {
		if !answered[q.ID] {
			return q, true
		}
	}
	return Question{}, false
}
