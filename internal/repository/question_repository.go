package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

const questionColumns = `id, question_text, options, correct_answer, question_type, subject, difficulty, image_path, created_at`

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row interface{ Scan(...any) error }, q *model.Question) error {
	return row.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectAnswer, &q.Type,
		&q.Subject, &q.Difficulty, &q.ImagePath, &q.CreatedAt)
}

// GetByID retrieves one bank question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	if err := scanQuestion(row, q); err != nil {
		return nil, err
	}
	return q, nil
}

// List retrieves bank questions with pagination and an optional subject filter.
func (r *QuestionRepository) List(ctx context.Context, subject *string, limit, offset int) ([]model.Question, int, error) {
	countQuery := `SELECT COUNT(*) FROM questions`
	var countArgs []interface{}
	if subject != nil {
		countQuery += ` WHERE subject = $1`
		countArgs = append(countArgs, *subject)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []interface{}
	argIdx := 1

	if subject != nil {
		query += ` WHERE subject = $1`
		args = append(args, *subject)
		argIdx++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// ListBySubjects retrieves the full pool for the given subjects. Used as the
// composition pool when an exam blueprint is materialized.
func (r *QuestionRepository) ListBySubjects(ctx context.Context, subjects []string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE subject = ANY($1) ORDER BY created_at`,
		subjects,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountBySubject returns how many bank questions exist per subject.
func (r *QuestionRepository) CountBySubject(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT subject, COUNT(*) FROM questions GROUP BY subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var subject string
		var n int
		if err := rows.Scan(&subject, &n); err != nil {
			return nil, err
		}
		counts[subject] = n
	}
	return counts, rows.Err()
}

// Create inserts a new bank question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (id, question_text, options, correct_answer, question_type, subject, difficulty, image_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		q.ID, q.Text, q.Options, q.CorrectAnswer, q.Type, q.Subject, q.Difficulty, q.ImagePath,
	).Scan(&q.CreatedAt)
}

// CreateBulk inserts many bank questions in a single batch round trip.
func (r *QuestionRepository) CreateBulk(ctx context.Context, questions []model.Question) error {
	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		batch.Queue(
			`INSERT INTO questions (id, question_text, options, correct_answer, question_type, subject, difficulty, image_path)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			q.ID, q.Text, q.Options, q.CorrectAnswer, q.Type, q.Subject, q.Difficulty, q.ImagePath,
		)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// Update modifies a bank question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET question_text = $1, options = $2, correct_answer = $3,
		 question_type = $4, subject = $5, difficulty = $6, image_path = $7
		 WHERE id = $8`,
		q.Text, q.Options, q.CorrectAnswer, q.Type, q.Subject, q.Difficulty, q.ImagePath, q.ID,
	)
	return err
}

// Delete removes a bank question. Frozen exam papers keep their own copy, so
// deleting from the bank never alters an existing exam.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
