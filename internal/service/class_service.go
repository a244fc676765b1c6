package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
)

// ClassService handles class business logic.
type ClassService struct {
	classRepo *repository.ClassRepository
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo *repository.ClassRepository) *ClassService {
	return &ClassService{classRepo: classRepo}
}

// GetByID retrieves a class by its ID.
func (s *ClassService) GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, id)
}

// List retrieves all classes.
func (s *ClassService) List(ctx context.Context) ([]model.Class, error) {
	return s.classRepo.List(ctx)
}

// Create creates a new class.
func (s *ClassService) Create(ctx context.Context, req *model.CreateClassRequest) (*model.Class, error) {
	class := &model.Class{
		ID:         uuid.New(),
		Name:       req.Name,
		SubjectIDs: []uuid.UUID{},
	}
	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// Update modifies a class name and its subject assignments.
func (s *ClassService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateClassRequest) (*model.Class, error) {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		class.Name = req.Name
	}
	if req.SubjectIDs != nil {
		class.SubjectIDs = req.SubjectIDs
	}
	if err := s.classRepo.Update(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// Delete removes a class. Foreign key constraints on the students table
// prevent deletion while students are still registered in it.
func (s *ClassService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.classRepo.Delete(ctx, id)
}
