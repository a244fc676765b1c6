package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

// ResultRepository handles exam result persistence. One row exists per
// (exam, student) pair; re-submission replaces the previous row.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Upsert inserts or replaces a single result.
func (r *ResultRepository) Upsert(ctx context.Context, res *model.ExamResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, total_questions, answers, submitted_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET score = EXCLUDED.score, total_questions = EXCLUDED.total_questions,
		     answers = EXCLUDED.answers, submitted_at = EXCLUDED.submitted_at,
		     status = EXCLUDED.status`,
		res.ExamID, res.StudentID, res.Score, res.TotalQuestions, answers, res.SubmittedAt, res.Status,
	)
	return err
}

// UpsertBulk persists a batch of results in one round trip via UNNEST.
func (r *ResultRepository) UpsertBulk(ctx context.Context, results []model.ExamResult) error {
	if len(results) == 0 {
		return nil
	}

	examIDs := make([]uuid.UUID, len(results))
	studentIDs := make([]uuid.UUID, len(results))
	scores := make([]int, len(results))
	totals := make([]int, len(results))
	answers := make([][]byte, len(results))
	submittedAts := make([]time.Time, len(results))
	statuses := make([]string, len(results))

	for i, res := range results {
		raw, err := json.Marshal(res.Answers)
		if err != nil {
			return fmt.Errorf("marshal answers: %w", err)
		}
		examIDs[i] = res.ExamID
		studentIDs[i] = res.StudentID
		scores[i] = res.Score
		totals[i] = res.TotalQuestions
		answers[i] = raw
		submittedAts[i] = res.SubmittedAt
		statuses[i] = string(res.Status)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, total_questions, answers, submitted_at, status)
		 SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::int[], $4::int[], $5::jsonb[], $6::timestamptz[], $7::text[])
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET score = EXCLUDED.score, total_questions = EXCLUDED.total_questions,
		     answers = EXCLUDED.answers, submitted_at = EXCLUDED.submitted_at,
		     status = EXCLUDED.status`,
		examIDs, studentIDs, scores, totals, answers, submittedAts, statuses,
	)
	return err
}

// UpsertPendingBulk persists in-progress answer snapshots as PENDING rows.
// A graded row is never overwritten: grading wins over any autosave snapshot
// that flushes late.
func (r *ResultRepository) UpsertPendingBulk(ctx context.Context, snapshots []model.ExamResult) error {
	if len(snapshots) == 0 {
		return nil
	}

	examIDs := make([]uuid.UUID, len(snapshots))
	studentIDs := make([]uuid.UUID, len(snapshots))
	totals := make([]int, len(snapshots))
	answers := make([][]byte, len(snapshots))
	savedAts := make([]time.Time, len(snapshots))

	for i, snap := range snapshots {
		raw, err := json.Marshal(snap.Answers)
		if err != nil {
			return fmt.Errorf("marshal answers: %w", err)
		}
		examIDs[i] = snap.ExamID
		studentIDs[i] = snap.StudentID
		totals[i] = snap.TotalQuestions
		answers[i] = raw
		savedAts[i] = snap.SubmittedAt
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, total_questions, answers, submitted_at, status)
		 SELECT u.exam_id, u.student_id, 0, u.total_questions, u.answers, u.saved_at, 'PENDING'
		 FROM UNNEST($1::uuid[], $2::uuid[], $3::int[], $4::jsonb[], $5::timestamptz[])
		      AS u (exam_id, student_id, total_questions, answers, saved_at)
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET total_questions = EXCLUDED.total_questions,
		     answers = EXCLUDED.answers, submitted_at = EXCLUDED.submitted_at
		 WHERE exam_results.status <> 'GRADED'`,
		examIDs, studentIDs, totals, answers, savedAts,
	)
	return err
}

// GetByExamAndStudent retrieves the result for one attempt.
func (r *ResultRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT exam_id, student_id, score, total_questions, answers, submitted_at, status
		 FROM exam_results WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&res.ExamID, &res.StudentID, &res.Score, &res.TotalQuestions, &answers, &res.SubmittedAt, &res.Status)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return res, nil
}

// ListByStudent retrieves all results for a student, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, student_id, score, total_questions, answers, submitted_at, status
		 FROM exam_results WHERE student_id = $1
		 ORDER BY submitted_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		var answers []byte
		if err := rows.Scan(&res.ExamID, &res.StudentID, &res.Score, &res.TotalQuestions,
			&answers, &res.SubmittedAt, &res.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListByExam retrieves all student results for an exam with identity columns
// for the admin review table, paginated.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.ResultSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_results WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT er.exam_id, er.student_id, er.score, er.total_questions, er.answers,
		        er.submitted_at, er.status, s.name, s.username, s.class_name
		 FROM exam_results er
		 JOIN students s ON er.student_id = s.id
		 WHERE er.exam_id = $1
		 ORDER BY er.score DESC, s.username ASC
		 LIMIT $2 OFFSET $3`, examID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.ResultSummary
	for rows.Next() {
		var res model.ResultSummary
		var answers []byte
		if err := rows.Scan(&res.ExamID, &res.StudentID, &res.Score, &res.TotalQuestions,
			&answers, &res.SubmittedAt, &res.Status,
			&res.StudentName, &res.Username, &res.ClassName); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, 0, fmt.Errorf("unmarshal answers: %w", err)
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// DeleteByExam removes all results for an exam.
func (r *ResultRepository) DeleteByExam(ctx context.Context, examID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exam_results WHERE exam_id = $1`, examID)
	return err
}
