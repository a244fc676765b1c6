package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
)

type SubjectService struct {
	subjectRepo *repository.SubjectRepository
	log         zerolog.Logger
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	return s.subjectRepo.GetAll(ctx)
}

func (s *SubjectService) Create(ctx context.Context, req *model.CreateSubjectRequest) (*model.Subject, error) {
	sub := &model.Subject{ID: uuid.New(), Name: req.Name}
	if err := s.subjectRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubjectService) Update(ctx context.Context, id uuid.UUID, name string) (*model.Subject, error) {
	sub, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.Name = name
	if err := s.subjectRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.subjectRepo.Delete(ctx, id)
}
