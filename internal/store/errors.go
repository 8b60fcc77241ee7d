package store

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrQuotaExceeded  = errors.New("execution count has reached the required limit for this tester")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrHasAssignments = errors.New("user still has test case assignments")
)
