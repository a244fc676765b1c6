package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
	"github.com/adewumilot300-rgb/EduNexus/internal/response"
)

// StudentService handles student registration and management. Credentials
// are generated server side: the username is the class name plus a
// zero-padded roll number ("JSS1/001"), the registration number derives from
// the enrollment year, and the PIN is a random 6-digit code returned to the
// admin exactly once.
type StudentService struct {
	studentRepo *repository.StudentRepository
	authService *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, authService *AuthService) *StudentService {
	return &StudentService{studentRepo: studentRepo, authService: authService}
}

// GetByUsername retrieves a student by their generated username.
func (s *StudentService) GetByUsername(ctx context.Context, username string) (*model.Student, error) {
	return s.studentRepo.GetByUsername(ctx, username)
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// ListStudents retrieves all students with pagination and optional class filter.
func (s *StudentService) ListStudents(ctx context.Context, className *string, page, perPage int) ([]model.Student, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	students, total, err := s.studentRepo.ListPaginated(ctx, className, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if students == nil {
		students = []model.Student{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return students, pagination, nil
}

// Register creates a student with generated credentials. The plaintext PIN is
// returned alongside the student and is never stored or shown again.
func (s *StudentService) Register(ctx context.Context, req *model.RegisterStudentRequest, enrollmentYear int) (*model.RegisteredStudent, error) {
	count, err := s.studentRepo.CountByClass(ctx, req.ClassName)
	if err != nil {
		return nil, fmt.Errorf("count class: %w", err)
	}

	pin, err := generatePIN()
	if err != nil {
		return nil, fmt.Errorf("generate pin: %w", err)
	}
	pinHash, err := s.authService.HashSecret(pin)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	roll := count + 1
	student := &model.Student{
		ID:             uuid.New(),
		Name:           req.Name,
		ClassName:      req.ClassName,
		DateOfBirth:    req.DateOfBirth,
		Username:       fmt.Sprintf("%s/%03d", req.ClassName, roll),
		RegNo:          fmt.Sprintf("EDU/%d/%04d", enrollmentYear, roll),
		PINHash:        pinHash,
		Email:          req.Email,
		MobileNumber:   req.MobileNumber,
		ParentNumber:   req.ParentNumber,
		ProfilePicture: req.ProfilePicture,
	}

	// Retry with the next roll number on a username collision; concurrent
	// registrations into the same class can race the count.
	for attempt := 0; attempt < 5; attempt++ {
		err = s.studentRepo.Create(ctx, student)
		if err == nil {
			return &model.RegisteredStudent{Student: *student, PIN: pin}, nil
		}
		if err != repository.ErrDuplicateUsername {
			return nil, err
		}
		roll++
		student.Username = fmt.Sprintf("%s/%03d", req.ClassName, roll)
		student.RegNo = fmt.Sprintf("EDU/%d/%04d", enrollmentYear, roll)
	}
	return nil, err
}

// RegisterBulk registers many students in one call and reports per-row
// outcomes without aborting the batch on individual failures.
func (s *StudentService) RegisterBulk(ctx context.Context, req *model.BulkRegisterStudentsRequest, enrollmentYear int) ([]model.RegisteredStudent, []error) {
	registered := make([]model.RegisteredStudent, 0, len(req.Students))
	var failures []error
	for i := range req.Students {
		r, err := s.Register(ctx, &req.Students[i], enrollmentYear)
		if err != nil {
			failures = append(failures, fmt.Errorf("student %q: %w", req.Students[i].Name, err))
			continue
		}
		registered = append(registered, *r)
	}
	return registered, failures
}

// Update modifies a student's details. When ResetPIN is set a fresh PIN is
// generated and returned; otherwise the returned PIN is empty.
func (s *StudentService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStudentRequest) (*model.Student, string, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	student.Name = req.Name
	student.DateOfBirth = req.DateOfBirth
	student.Email = req.Email
	student.MobileNumber = req.MobileNumber
	student.ParentNumber = req.ParentNumber
	student.ProfilePicture = req.ProfilePicture

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, "", err
	}

	var pin string
	if req.ResetPIN {
		pin, err = generatePIN()
		if err != nil {
			return nil, "", fmt.Errorf("generate pin: %w", err)
		}
		pinHash, err := s.authService.HashSecret(pin)
		if err != nil {
			return nil, "", fmt.Errorf("hash pin: %w", err)
		}
		if err := s.studentRepo.UpdatePIN(ctx, id, pinHash); err != nil {
			return nil, "", err
		}
	}

	return student, pin, nil
}

// Delete removes a student by ID.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.studentRepo.Delete(ctx, id)
}

// generatePIN returns a random 6-digit numeric PIN with leading zeros kept.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
