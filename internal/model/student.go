package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is a registered candidate. Username ("JSS1/001"), RegNo and the
// 6-digit PIN are generated at registration; only the PIN hash is stored.
type Student struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ClassName      string    `json:"class_name"`
	DateOfBirth    string    `json:"date_of_birth"`
	Username       string    `json:"username"`
	RegNo          string    `json:"reg_no"`
	PINHash        string    `json:"-"`
	Email          *string   `json:"email,omitempty"`
	MobileNumber   *string   `json:"mobile_number,omitempty"`
	ParentNumber   *string   `json:"parent_number,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RegisterStudentRequest is the payload for registering a single student.
type RegisterStudentRequest struct {
	Name           string  `json:"name" binding:"required,min=2,max=100"`
	ClassName      string  `json:"class_name" binding:"required,min=2,max=100"`
	DateOfBirth    string  `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Email          *string `json:"email" binding:"omitempty,email"`
	MobileNumber   *string `json:"mobile_number" binding:"omitempty,min=7,max=20"`
	ParentNumber   *string `json:"parent_number" binding:"omitempty,min=7,max=20"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=255"`
}

// BulkRegisterStudentsRequest imports many students in one call.
type BulkRegisterStudentsRequest struct {
	Students []RegisterStudentRequest `json:"students" binding:"required,min=1,dive"`
}

// UpdateStudentRequest is the payload for editing an existing student.
type UpdateStudentRequest struct {
	Name           string  `json:"name" binding:"required,min=2,max=100"`
	ClassName      string  `json:"class_name" binding:"required,min=2,max=100"`
	DateOfBirth    string  `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Email          *string `json:"email" binding:"omitempty,email"`
	MobileNumber   *string `json:"mobile_number" binding:"omitempty,min=7,max=20"`
	ParentNumber   *string `json:"parent_number" binding:"omitempty,min=7,max=20"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=255"`
	ResetPIN       bool    `json:"reset_pin"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	Username string `json:"username" binding:"required,min=4,max=50"`
	PIN      string `json:"pin" binding:"required,len=6,numeric"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// RegisteredStudent pairs a created student with the plaintext PIN, returned
// exactly once at registration so the admin can hand it to the student.
type RegisteredStudent struct {
	Student Student `json:"student"`
	PIN     string  `json:"pin"`
}
