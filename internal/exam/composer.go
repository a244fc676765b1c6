package exam

import (
	"math/rand"
	"time"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

// Composer materializes the frozen question sequence for a new exam instance
// from a blueprint and a read-only question pool. The random source is
// injectable so tests can assert exact output order.
type Composer struct {
	rng *rand.Rand
}

// NewComposer creates a Composer. A nil rng falls back to a time-seeded source.
func NewComposer(rng *rand.Rand) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Composer{rng: rng}
}

// Compose selects questions for each blueprint entry and concatenates the
// per-subject picks in blueprint order.
//
// For each (subject, count): the pool is filtered by subject, uniformly
// shuffled, and the first min(count, available) questions are taken. A
// shortfall is not an error; the exam simply gets fewer questions for that
// subject. The pool is never mutated.
func (c *Composer) Compose(pool []model.Question, blueprint []model.SubjectAllocation) []model.Question {
	selected := make([]model.Question, 0)

	for _, alloc := range blueprint {
		var subjectPool []model.Question
		for _, q := range pool {
			if q.Subject == alloc.Subject {
				subjectPool = append(subjectPool, q)
			}
		}

		c.rng.Shuffle(len(subjectPool), func(i, j int) {
			subjectPool[i], subjectPool[j] = subjectPool[j], subjectPool[i]
		})

		take := alloc.QuestionCount
		if take > len(subjectPool) {
			take = len(subjectPool)
		}
		selected = append(selected, subjectPool[:take]...)
	}

	return selected
}

// ShuffleOrder returns a new uniformly permuted copy of the question sequence.
// Used for the per-student order when an exam has shuffle_questions enabled;
// the question SET is unchanged, only the presentation order differs.
func (c *Composer) ShuffleOrder(questions []model.Question) []model.Question {
	shuffled := make([]model.Question, len(questions))
	copy(shuffled, questions)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
