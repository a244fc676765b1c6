package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

const examColumns = `id, title, class_name, duration_minutes, instructions, config, blueprint,
	status, questions, assigned_student_ids, created_at, updated_at`

// ExamRepository handles exam data access. The frozen question paper and the
// blueprint are stored as JSONB alongside the exam row.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row interface{ Scan(...any) error }, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.ClassName, &e.DurationMinutes, &e.Instructions,
		&e.Config, &e.Blueprint, &e.Status, &e.Questions, &e.AssignedStudentIDs,
		&e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListPaginated retrieves exams with pagination and an optional status filter.
func (r *ExamRepository) ListPaginated(ctx context.Context, status *model.ExamStatus, limit, offset int) ([]model.Exam, int, error) {
	countQuery := `SELECT COUNT(*) FROM exams`
	var countArgs []interface{}
	if status != nil {
		countQuery += ` WHERE status = $1`
		countArgs = append(countArgs, *status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + examColumns + ` FROM exams`
	var args []interface{}
	argIdx := 1

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
		argIdx++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// ListActive returns all ACTIVE exams. Used for cache prewarming on startup.
func (r *ExamRepository) ListActive(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE status = $1 ORDER BY created_at DESC`,
		model.ExamStatusActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListAssignedToStudent returns exams a student is assigned to, newest first.
// Used by the student lobby; the caller filters by status as needed.
func (r *ExamRepository) ListAssignedToStudent(ctx context.Context, studentID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE $1 = ANY(assigned_student_ids)
		 ORDER BY created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam with its frozen question paper.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, title, class_name, duration_minutes, instructions, config,
		 blueprint, status, questions, assigned_student_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		e.ID, e.Title, e.ClassName, e.DurationMinutes, e.Instructions, e.Config,
		e.Blueprint, e.Status, e.Questions, e.AssignedStudentIDs,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// Update rewrites a draft exam's editable fields including the frozen paper.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET title = $1, class_name = $2, duration_minutes = $3, instructions = $4,
		 config = $5, blueprint = $6, questions = $7, assigned_student_ids = $8,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = $9`,
		e.Title, e.ClassName, e.DurationMinutes, e.Instructions,
		e.Config, e.Blueprint, e.Questions, e.AssignedStudentIDs, e.ID,
	)
	return err
}

// UpdateStatus updates an exam's lifecycle status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id)
	return err
}

// UpdateAssignments replaces the set of students assigned to an exam.
func (r *ExamRepository) UpdateAssignments(ctx context.Context, id uuid.UUID, studentIDs []uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET assigned_student_ids = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		studentIDs, id)
	return err
}

// Delete removes an exam. Results reference exams with ON DELETE CASCADE.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
