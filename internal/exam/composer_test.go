package exam

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

func bankQuestion(subject, correct string) model.Question {
	return model.Question{
		ID:            uuid.New(),
		Text:          "q-" + subject,
		Options:       []string{"one", "two", "three", "four"},
		CorrectAnswer: correct,
		Type:          model.QuestionTypeMCQ,
		Subject:       subject,
		Difficulty:    model.DifficultyMedium,
	}
}

func buildPool(counts map[string]int) []model.Question {
	var pool []model.Question
	for subject, n := range counts {
		for i := 0; i < n; i++ {
			pool = append(pool, bankQuestion(subject, "A"))
		}
	}
	return pool
}

func TestComposeBlueprintOrderAndCounts(t *testing.T) {
	pool := buildPool(map[string]int{"Mathematics": 5, "English": 5, "Physics": 3})
	blueprint := []model.SubjectAllocation{
		{Subject: "Mathematics", QuestionCount: 3},
		{Subject: "English", QuestionCount: 3},
		{Subject: "Physics", QuestionCount: 2},
	}

	c := NewComposer(rand.New(rand.NewSource(42)))
	got := c.Compose(pool, blueprint)

	if len(got) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(got))
	}

	// Per-subject selections must appear as contiguous runs in blueprint order.
	wantSubjects := []string{
		"Mathematics", "Mathematics", "Mathematics",
		"English", "English", "English",
		"Physics", "Physics",
	}
	for i, q := range got {
		if q.Subject != wantSubjects[i] {
			t.Fatalf("position %d: expected subject %s, got %s", i, wantSubjects[i], q.Subject)
		}
	}

	// No duplicates.
	seen := make(map[uuid.UUID]bool)
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("question %s selected twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestComposeShortfallTakesAllAvailable(t *testing.T) {
	pool := buildPool(map[string]int{"Mathematics": 2})
	blueprint := []model.SubjectAllocation{{Subject: "Mathematics", QuestionCount: 3}}

	got := NewComposer(rand.New(rand.NewSource(1))).Compose(pool, blueprint)

	if len(got) != 2 {
		t.Fatalf("expected the 2 available questions, got %d", len(got))
	}
}

func TestComposeUnknownSubjectYieldsNothing(t *testing.T) {
	pool := buildPool(map[string]int{"English": 4})
	blueprint := []model.SubjectAllocation{
		{Subject: "Chemistry", QuestionCount: 5},
		{Subject: "English", QuestionCount: 2},
	}

	got := NewComposer(rand.New(rand.NewSource(1))).Compose(pool, blueprint)

	if len(got) != 2 {
		t.Fatalf("expected 2 questions (none for Chemistry), got %d", len(got))
	}
	for _, q := range got {
		if q.Subject != "English" {
			t.Fatalf("unexpected subject %s", q.Subject)
		}
	}
}

func TestComposeEmptyInputs(t *testing.T) {
	c := NewComposer(rand.New(rand.NewSource(1)))

	if got := c.Compose(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty selection, got %d", len(got))
	}
	if got := c.Compose(nil, []model.SubjectAllocation{{Subject: "Mathematics", QuestionCount: 5}}); len(got) != 0 {
		t.Fatalf("expected empty selection from empty pool, got %d", len(got))
	}
}

func TestComposeDoesNotMutatePool(t *testing.T) {
	pool := buildPool(map[string]int{"Mathematics": 6})
	original := make([]uuid.UUID, len(pool))
	for i, q := range pool {
		original[i] = q.ID
	}

	NewComposer(rand.New(rand.NewSource(7))).Compose(pool, []model.SubjectAllocation{
		{Subject: "Mathematics", QuestionCount: 4},
	})

	for i, q := range pool {
		if q.ID != original[i] {
			t.Fatalf("pool order changed at %d", i)
		}
	}
}

func TestComposeDeterministicWithSeededSource(t *testing.T) {
	pool := buildPool(map[string]int{"Mathematics": 10, "English": 10})
	blueprint := []model.SubjectAllocation{
		{Subject: "Mathematics", QuestionCount: 5},
		{Subject: "English", QuestionCount: 5},
	}

	a := NewComposer(rand.New(rand.NewSource(99))).Compose(pool, blueprint)
	b := NewComposer(rand.New(rand.NewSource(99))).Compose(pool, blueprint)

	if len(a) != len(b) {
		t.Fatalf("selection lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("selection diverges at %d", i)
		}
	}
}

func TestShuffleOrderKeepsQuestionSet(t *testing.T) {
	pool := buildPool(map[string]int{"Mathematics": 8})
	c := NewComposer(rand.New(rand.NewSource(3)))

	shuffled := c.ShuffleOrder(pool)

	if len(shuffled) != len(pool) {
		t.Fatalf("expected %d questions, got %d", len(pool), len(shuffled))
	}
	want := make(map[uuid.UUID]bool, len(pool))
	for _, q := range pool {
		want[q.ID] = true
	}
	for _, q := range shuffled {
		if !want[q.ID] {
			t.Fatalf("question %s not in original set", q.ID)
		}
	}
}
