package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by repositories
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Learner errors
var (
	ErrLearnerNotFound      = errors.New("learner not found")
	ErrLearnerAlreadyExists = errors.New("learner already exists")
)

// Classroom errors
var (
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrNotEnrolled       = errors.New("learner not enrolled in classroom")
)

// Catalog errors
var (
	ErrUnitNotFound     = errors.New("unit not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrInvalidReference covers content ids that exist nowhere or that do
	// not belong to the unit named in the request.
	ErrInvalidReference = errors.New("invalid content reference")
)

// Submission errors
var (
	ErrScoreExceedsMax         = errors.New("score exceeds exercise max score")
	ErrInvalidSubmissionTarget = errors.New("submission not found in progress record")
)

// Points errors
var (
	ErrInsufficientPoints = errors.New("insufficient point balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
