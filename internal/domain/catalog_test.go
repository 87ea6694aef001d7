package domain

import "testing"

func testWeeks() []Week {
	return []Week{
		{ID: "w2", Name: "Week Two", Order: 2},
		{ID: "w1", Name: "Week One", Order: 1},
	}
}

func testQuestions() []Question {
	return []Question{
		{ID: "q3", WeekID: "w2", OrderInWeek: 1, Prompt: "third", Answer: "C", Points: 5},
		{ID: "q2", WeekID: "w1", OrderInWeek: 2, Prompt: "second", Answer: "B", Points: 20},
		{ID: "q1", WeekID: "w1", OrderInWeek: 1, Prompt: "first", Answer: "A", Points: 10},
	}
}

func TestCatalogGlobalOrder(t *testing.T) {
	catalog, err := NewCatalog(testWeeks(), testQuestions())
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	got := catalog.Questions()
	want := []string{"q1", "q2", "q3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestCatalogNextUnanswered(t *testing.T) {
	catalog, err := NewCatalog(testWeeks(), testQuestions())
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	q, ok := catalog.NextUnanswered(nil)
	if !ok || q.ID != "q1" {
		t.Fatalf("expected q1 first, got %v ok=%v", q.ID, ok)
	}

	q, ok = catalog.NextUnanswered(map[string]bool{"q1": true})
	if !ok || q.ID != "q2" {
		t.Fatalf("expected q2 after q1 answered, got %v ok=%v", q.ID, ok)
	}

	// Answering out of order never skips the earliest gap.
	q, ok = catalog.NextUnanswered(map[string]bool{"q1": true, "q3": true})
	if !ok || q.ID != "q2" {
		t.Fatalf("expected q2 with q3 already answered, got %v ok=%v", q.ID, ok)
	}

	if _, ok := catalog.NextUnanswered(map[string]bool{"q1": true, "q2": true, "q3": true}); ok {
		t.Fatalf("expected no question once all answered")
	}
}

func TestCatalogRejectsDuplicateWeekOrder(t *testing.T) {
	_, err := NewCatalog([]Week{
		{ID: "w1", Name: "One", Order: 1},
		{ID: "w2", Name: "Two", Order: 1},
	}, nil)
	if err == nil {
		t.Fatalf("expected duplicate week order to fail validation")
	}
}

func TestCatalogRejectsDuplicateSlot(t *testing.T) {
	_, err := NewCatalog(
		[]Week{{ID: "w1", Name: "One", Order: 1}},
		[]Question{
			{ID: "q1", WeekID: "w1", OrderInWeek: 1, Prompt: "a", Answer: "A"},
			{ID: "q2", WeekID: "w1", OrderInWeek: 1, Prompt: "b", Answer: "B"},
		})
	if err == nil {
		t.Fatalf("expected duplicate in-week order to fail validation")
	}
}

func TestCatalogRejectsUnknownWeek(t *testing.T) {
	_, err := NewCatalog(
		[]Week{{ID: "w1", Name: "One", Order: 1}},
		[]Question{{ID: "q1", WeekID: "missing", OrderInWeek: 1, Prompt: "a", Answer: "A"}})
	if err == nil {
		t.Fatalf("expected unknown week reference to fail validation")
	}
}

func TestCatalogRejectsNegativePoints(t *testing.T) {
	_, err := NewCatalog(
		[]Week{{ID: "w1", Name: "One", Order: 1}},
		[]Question{{ID: "q1", WeekID: "w1", OrderInWeek: 1, Prompt: "a", Answer: "A", Points: -1}})
	if err == nil {
		t.Fatalf("expected negative points to fail validation")
	}
}
