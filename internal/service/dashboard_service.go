package service

import (
	"context"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
)

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	TotalStudents    int                              `json:"total_students"`
	TotalExams       int                              `json:"total_exams"`
	TotalSubjects    int                              `json:"total_subjects"`
	TotalQuestions   int                              `json:"total_questions"`
	ExamStatusCounts map[model.ExamStatus]int         `json:"exam_status_counts"`
	RecentExams      []repository.DashboardRecentExam `json:"recent_exams"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData fetches all dashboard metrics.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	students, exams, subjects, questions, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.repo.GetExamStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentExamResults(ctx, 5)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		TotalStudents:    students,
		TotalExams:       exams,
		TotalSubjects:    subjects,
		TotalQuestions:   questions,
		ExamStatusCounts: statusCounts,
		RecentExams:      recent,
	}

	return data, nil
}
