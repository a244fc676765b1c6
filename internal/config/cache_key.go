package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID string) string {
	return fmt.Sprintf("login:%s", studentID)
}

// StudentExamSessionStartKey returns the cache key for a student's exam session start
func (r *CacheKeyStruct) StudentExamSessionStartKey(examID, studentID string) string {
	return fmt.Sprintf("student:%s:exam:%s:session_start", studentID, examID)
}

// StudentQuestionOrderKey returns the cache key for a student's shuffled question order
func (r *CacheKeyStruct) StudentQuestionOrderKey(examID, studentID string) string {
	return fmt.Sprintf("student:%s:exam:%s:question_order", studentID, examID)
}

// StudentAnswersKey returns the cache key for a student's autosaved answers
func (r *CacheKeyStruct) StudentAnswersKey(examID, studentID string) string {
	return fmt.Sprintf("student:%s:exam:%s:answers", studentID, examID)
}

// ExamPaperKey returns the cache key for an exam's frozen question paper
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

var CacheKey = NewCacheKeyStruct()
