package domain

import (
	"time"

	"github.com/google/uuid"
)

// Classroom is the enrollment scope for progress and points. This core only
// reads membership and flips the new-submission flags; everything else about
// classrooms is managed elsewhere.
type Classroom struct {
	ID        uuid.UUID
	Name      string
	TeacherID uuid.UUID
	Members   []uuid.UUID
	// NewSubmissionFlags marks (learner, exercise) pairs with submissions
	// the teacher has not looked at yet.
	NewSubmissionFlags []SubmissionFlag
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubmissionFlag marks one learner's fresh submission for one exercise.
type SubmissionFlag struct {
	LearnerID  uuid.UUID
	ExerciseID string
}

// HasMember reports whether the learner is enrolled.
func (c *Classroom) HasMember(learnerID uuid.UUID) bool {
	for _, m := range c.Members {
		if m == learnerID {
			return true
		}
	}
	return false
}

// FlagNewSubmission records that the learner has a fresh submission for the
// exercise. Flagging an already flagged pair is a no-op.
func (c *Classroom) FlagNewSubmission(learnerID uuid.UUID, exerciseID string) bool {
	for _, f := range c.NewSubmissionFlags {
		if f.LearnerID == learnerID && f.ExerciseID == exerciseID {
			return false
		}
	}
	c.NewSubmissionFlags = append(c.NewSubmissionFlags, SubmissionFlag{
		LearnerID:  learnerID,
		ExerciseID: exerciseID,
	})
	return true
}
