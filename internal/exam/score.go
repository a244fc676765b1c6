package exam

import (
	"fmt"
	"math"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

// Verdict classifies one question of a graded attempt. Every question falls
// into exactly one class: skipped when no answer was recorded, otherwise
// correct or wrong by comparison with the answer key.
type Verdict string

const (
	VerdictCorrect Verdict = "CORRECT"
	VerdictWrong   Verdict = "WRONG"
	VerdictSkipped Verdict = "SKIPPED"
)

// ClassifyQuestion grades a single question against the recorded answers.
func ClassifyQuestion(q model.Question, answers map[string]string) Verdict {
	token, ok := answers[q.ID.String()]
	if !ok {
		return VerdictSkipped
	}
	if token == q.CorrectAnswer {
		return VerdictCorrect
	}
	return VerdictWrong
}

// Classify grades every question, keyed by question ID. The verdicts
// partition the question list: correct + wrong + skipped == len(questions).
func Classify(questions []model.Question, answers map[string]string) map[string]Verdict {
	verdicts := make(map[string]Verdict, len(questions))
	for _, q := range questions {
		verdicts[q.ID.String()] = ClassifyQuestion(q, answers)
	}
	return verdicts
}

// Score counts the correct answers. Skipped and wrong both score zero.
func Score(questions []model.Question, answers map[string]string) int {
	score := 0
	for _, q := range questions {
		if ClassifyQuestion(q, answers) == VerdictCorrect {
			score++
		}
	}
	return score
}

// Breakdown tallies an attempt by verdict.
type Breakdown struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Skipped int `json:"skipped"`
}

// Summarize tallies the verdicts for a full question list.
func Summarize(questions []model.Question, answers map[string]string) Breakdown {
	var b Breakdown
	for _, q := range questions {
		switch ClassifyQuestion(q, answers) {
		case VerdictCorrect:
			b.Correct++
		case VerdictWrong:
			b.Wrong++
		default:
			b.Skipped++
		}
	}
	return b
}

// SubjectSummary is one subject's slice of an attempt, in paper order.
type SubjectSummary struct {
	Subject string `json:"subject"`
	Total   int    `json:"total"`
	Breakdown
}

// SummarizeBySubject tallies the verdicts per subject, ordered by each
// subject's first appearance in the paper (blueprint order).
func SummarizeBySubject(questions []model.Question, answers map[string]string) []SubjectSummary {
	index := make(map[string]int)
	var out []SubjectSummary
	for _, q := range questions {
		i, ok := index[q.Subject]
		if !ok {
			i = len(out)
			index[q.Subject] = i
			out = append(out, SubjectSummary{Subject: q.Subject})
		}
		out[i].Total++
		switch ClassifyQuestion(q, answers) {
		case VerdictCorrect:
			out[i].Correct++
		case VerdictWrong:
			out[i].Wrong++
		default:
			out[i].Skipped++
		}
	}
	return out
}

// Percentage returns the rounded percent score. A zero-question exam is 0%,
// never a division error.
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// FormatClock renders remaining seconds as zero-padded HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
