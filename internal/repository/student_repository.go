package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adewumilot300-rgb/EduNexus/internal/model"
)

var ErrDuplicateUsername = errors.New("student with this username already exists")

const studentColumns = `id, name, class_name, date_of_birth, username, reg_no, pin_hash,
	email, mobile_number, parent_number, profile_picture, created_at, updated_at`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row interface{ Scan(...any) error }, s *model.Student) error {
	return row.Scan(&s.ID, &s.Name, &s.ClassName, &s.DateOfBirth, &s.Username, &s.RegNo,
		&s.PINHash, &s.Email, &s.MobileNumber, &s.ParentNumber,
		&s.ProfilePicture, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s := &model.Student{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err := scanStudent(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByUsername retrieves a student by their generated username (e.g. "JSS1/001").
func (r *StudentRepository) GetByUsername(ctx context.Context, username string) (*model.Student, error) {
	s := &model.Student{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE username = $1`, username)
	if err := scanStudent(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListPaginated retrieves students with pagination and optional class filter.
func (r *StudentRepository) ListPaginated(ctx context.Context, className *string, limit, offset int) ([]model.Student, int, error) {
	countQuery := `SELECT COUNT(*) FROM students`
	var countArgs []interface{}
	if className != nil {
		countQuery += ` WHERE class_name = $1`
		countArgs = append(countArgs, *className)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	var args []interface{}
	argIdx := 1

	if className != nil {
		query += ` WHERE class_name = $1`
		args = append(args, *className)
		argIdx++
	}

	query += ` ORDER BY class_name, username LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// CountByClass returns how many students are registered in a class. Used to
// derive the next roll number when generating usernames.
func (r *StudentRepository) CountByClass(ctx context.Context, className string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE class_name = $1`, className,
	).Scan(&n)
	return n, err
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (id, name, class_name, date_of_birth, username, reg_no, pin_hash,
		 email, mobile_number, parent_number, profile_picture)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at, updated_at`,
		s.ID, s.Name, s.ClassName, s.DateOfBirth, s.Username, s.RegNo, s.PINHash,
		s.Email, s.MobileNumber, s.ParentNumber, s.ProfilePicture,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// Update modifies a student's basic info (excluding PIN).
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET name = $1, date_of_birth = $2, email = $3, mobile_number = $4,
		 parent_number = $5, profile_picture = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		s.Name, s.DateOfBirth, s.Email, s.MobileNumber, s.ParentNumber, s.ProfilePicture, s.ID,
	)
	return err
}

// UpdatePIN updates a student's PIN hash.
func (r *StudentRepository) UpdatePIN(ctx context.Context, id uuid.UUID, pinHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET pin_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		pinHash, id,
	)
	return err
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}
