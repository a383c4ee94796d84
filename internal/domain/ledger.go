package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the sign of a points ledger entry.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Category classifies why a point balance changed. The set is closed; every
// ledger entry carries exactly one of these.
type Category string

const (
	CategoryExtraAward            Category = "extra-award"
	CategoryGameSpending          Category = "game-spending"
	CategoryInstantExerciseCredit Category = "instant-exercise-credit"
	CategoryTeacherRescoring      Category = "teacher-rescoring"
	CategoryRecommendedLesson     Category = "recommended-lesson-bonus"
	CategoryRecommendedExercise   Category = "recommended-exercise-bonus"
)

// PointsLogEntry is one immutable record in the points audit trail.
// Entries are never mutated or deleted; corrections are new offsetting
// entries. The learner's cached balance must move in lockstep with these.
type PointsLogEntry struct {
	ID          uuid.UUID
	LearnerID   uuid.UUID
	ClassroomID uuid.UUID
	// GranterID identifies the teacher for manually granted points.
	GranterID *uuid.UUID
	Direction Direction
	Amount    int
	Category  Category
	Detail    string
	CreatedAt time.Time
}

// Signed returns the entry amount with its direction applied.
func (e PointsLogEntry) Signed() int {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}

// NewLogEntry creates a ledger entry with a fresh id and timestamp.
func NewLogEntry(learnerID, classroomID uuid.UUID, dir Direction, amount int, cat Category, detail string, granter *uuid.UUID) PointsLogEntry {
	return PointsLogEntry{
		ID:          uuid.New(),
		LearnerID:   learnerID,
		ClassroomID: classroomID,
		GranterID:   granter,
		Direction:   dir,
		Amount:      amount,
		Category:    cat,
		Detail:      detail,
		CreatedAt:   time.Now(),
	}
}
