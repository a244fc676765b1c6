package exam

import (
	"testing"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

func gradedExam() []model.Question {
	return []model.Question{
		bankQuestion("Mathematics", "A"),
		bankQuestion("Mathematics", "B"),
		bankQuestion("English", "C"),
	}
}

func TestClassifyPartitionsEveryQuestion(t *testing.T) {
	questions := gradedExam()
	answers := map[string]string{
		questions[0].ID.String(): "A", // correct
		questions[1].ID.String(): "D", // wrong
		// questions[2] skipped
	}

	verdicts := Classify(questions, answers)
	if len(verdicts) != len(questions) {
		t.Fatalf("expected %d verdicts, got %d", len(questions), len(verdicts))
	}

	b := Summarize(questions, answers)
	if b.Correct+b.Wrong+b.Skipped != len(questions) {
		t.Fatalf("verdicts do not partition: %+v", b)
	}
	if b.Correct != 1 || b.Wrong != 1 || b.Skipped != 1 {
		t.Fatalf("expected 1/1/1, got %+v", b)
	}
	if Score(questions, answers) != b.Correct {
		t.Fatalf("score %d disagrees with correct tally %d", Score(questions, answers), b.Correct)
	}
}

func TestScoreCountsOnlyCorrect(t *testing.T) {
	questions := gradedExam()
	answers := map[string]string{
		questions[0].ID.String(): "A",
		questions[1].ID.String(): "B",
	}

	if got := Score(questions, answers); got != 2 {
		t.Fatalf("expected score 2, got %d", got)
	}

	b := Summarize(questions, answers)
	if b.Correct != 2 || b.Wrong != 0 || b.Skipped != 1 {
		t.Fatalf("expected 2 correct, 0 wrong, 1 skipped, got %+v", b)
	}
	if got := Percentage(2, 3); got != 67 {
		t.Fatalf("expected 67%%, got %d%%", got)
	}
}

func TestSummarizeBySubjectKeepsPaperOrder(t *testing.T) {
	questions := gradedExam()
	answers := map[string]string{
		questions[0].ID.String(): "A", // Mathematics, correct
		questions[1].ID.String(): "D", // Mathematics, wrong
		// questions[2] (English) skipped
	}

	subjects := SummarizeBySubject(questions, answers)
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(subjects))
	}
	if subjects[0].Subject != "Mathematics" || subjects[1].Subject != "English" {
		t.Fatalf("subjects must follow paper order, got %s then %s", subjects[0].Subject, subjects[1].Subject)
	}

	m := subjects[0]
	if m.Total != 2 || m.Correct != 1 || m.Wrong != 1 || m.Skipped != 0 {
		t.Fatalf("Mathematics tally wrong: %+v", m)
	}
	e := subjects[1]
	if e.Total != 1 || e.Skipped != 1 {
		t.Fatalf("English tally wrong: %+v", e)
	}

	overall := Summarize(questions, answers)
	if m.Correct+e.Correct != overall.Correct || m.Wrong+e.Wrong != overall.Wrong || m.Skipped+e.Skipped != overall.Skipped {
		t.Fatalf("subject tallies must sum to the overall breakdown")
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name   string
		score  int
		total  int
		expect int
	}{
		{name: "zero total never divides", score: 0, total: 0, expect: 0},
		{name: "full marks", score: 8, total: 8, expect: 100},
		{name: "rounds half up", score: 1, total: 8, expect: 13},
		{name: "rounds down", score: 1, total: 3, expect: 33},
		{name: "rounds up", score: 2, total: 3, expect: 67},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Percentage(tc.score, tc.total); got != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, got)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		expect  string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3661, "01:01:01"},
		{7200, "02:00:00"},
		{-5, "00:00:00"},
	}

	for _, tc := range tests {
		if got := FormatClock(tc.seconds); got != tc.expect {
			t.Fatalf("FormatClock(%d): expected %s, got %s", tc.seconds, tc.expect, got)
		}
	}
}
