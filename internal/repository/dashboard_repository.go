package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (totalStudents, totalExams, totalSubjects, totalQuestions int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM exams),
			(SELECT COUNT(*) FROM subjects),
			(SELECT COUNT(*) FROM questions)`,
	).Scan(&totalStudents, &totalExams, &totalSubjects, &totalQuestions)
	return
}

// GetExamStatusCounts retrieves the distribution of exams by status.
func (r *DashboardRepository) GetExamStatusCounts(ctx context.Context) (map[model.ExamStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM exams GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ExamStatus]int)
	for rows.Next() {
		var status model.ExamStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DashboardRecentExam aggregates submission stats for a recently run exam.
type DashboardRecentExam struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ClassName        string     `json:"class_name"`
	LastSubmission   *time.Time `json:"last_submission"`
	ParticipantCount int        `json:"participant_count"`
	AverageScore     *float64   `json:"average_score"`
}

// GetRecentExamResults retrieves the last N active or completed exams with
// submission stats.
func (r *DashboardRepository) GetRecentExamResults(ctx context.Context, limit int) ([]DashboardRecentExam, error) {
	query := `
		SELECT
			e.id,
			e.title,
			e.class_name,
			MAX(er.submitted_at) as last_submission,
			COUNT(er.student_id) as participant_count,
			AVG(er.score::float) as average_score
		FROM exams e
		LEFT JOIN exam_results er ON e.id = er.exam_id
		WHERE e.status IN ($1, $2)
		GROUP BY e.id, e.title, e.class_name
		ORDER BY last_submission DESC NULLS LAST
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, model.ExamStatusActive, model.ExamStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DashboardRecentExam
	for rows.Next() {
		var d DashboardRecentExam
		if err := rows.Scan(&d.ID, &d.Title, &d.ClassName, &d.LastSubmission, &d.ParticipantCount, &d.AverageScore); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	if results == nil {
		results = []DashboardRecentExam{}
	}
	return results, rows.Err()
}
