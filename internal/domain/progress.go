package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClassProgressInfo tracks a learner's progress through one unit in one
// classroom. It is created lazily on the first lesson completion or exercise
// submission for the pair and never deleted, only appended to.
type ClassProgressInfo struct {
	ClassroomID      uuid.UUID
	UnitID           string
	LessonsCompleted []string
	Submissions      []ExerciseSubmission
	// NumLessons and NumExercises are the unit totals captured at creation
	// time; NumExercises excludes non-canonical variant siblings.
	NumLessons      int
	NumExercises    int
	ProgressPercent float64
}

// ExerciseSubmission is the per-exercise record inside a progress record.
// Attempts is append-only and never empty once the record exists.
type ExerciseSubmission struct {
	ID         uuid.UUID
	ExerciseID string
	Attempts   []Attempt
	// BestScore is the maximum observed score across scored attempts.
	BestScore *int
	// CoinsEarned is the score already converted to points. Teacher
	// rescoring may raise it; it never decreases.
	CoinsEarned   *int
	MaxScore      int
	LastAttemptAt time.Time
	Feedback      *string
}

// Attempt is one submission of answers for an exercise. Score is absent for
// teacher-graded exercises until the teacher scores them.
type Attempt struct {
	Number      int // 1-indexed, strictly increasing and contiguous
	Score       *int
	Answers     json.RawMessage
	SubmittedAt time.Time
}

// NewClassProgressInfo creates a progress record seeded with the unit's
// totals. The exercise count must already be variant-deduplicated.
func NewClassProgressInfo(classroomID uuid.UUID, unit *Unit) ClassProgressInfo {
	return ClassProgressInfo{
		ClassroomID:  classroomID,
		UnitID:       unit.ID,
		NumLessons:   len(unit.Lessons),
		NumExercises: unit.CountedExerciseCount(),
	}
}

// HasCompletedLesson reports whether the lesson is already completed.
func (c *ClassProgressInfo) HasCompletedLesson(lessonID string) bool {
	for _, id := range c.LessonsCompleted {
		if id == lessonID {
			return true
		}
	}
	return false
}

// CompleteLesson marks the lesson completed and recomputes the percentage.
// Re-completing an already completed lesson is a no-op; the method reports
// whether progress actually changed.
func (c *ClassProgressInfo) CompleteLesson(lessonID string) bool {
	if c.HasCompletedLesson(lessonID) {
		return false
	}
	c.LessonsCompleted = append(c.LessonsCompleted, lessonID)
	c.recomputePercent()
	return true
}

// SubmissionFor returns the submission record for an exercise id.
func (c *ClassProgressInfo) SubmissionFor(exerciseID string) *ExerciseSubmission {
	for i := range c.Submissions {
		if c.Submissions[i].ExerciseID == exerciseID {
			return &c.Submissions[i]
		}
	}
	return nil
}

// RecordAttempt applies one submission attempt to the progress record.
// The first attempt for an exercise creates the submission record; later
// attempts append. It returns the submission and whether it was created.
func (c *ClassProgressInfo) RecordAttempt(ex Exercise, score *int, answers json.RawMessage, at time.Time) (*ExerciseSubmission, bool) {
	sub := c.SubmissionFor(ex.ID)
	if sub == nil {
		c.Submissions = append(c.Submissions, ExerciseSubmission{
			ID:         uuid.New(),
			ExerciseID: ex.ID,
			Attempts: []Attempt{{
				Number:      1,
				Score:       score,
				Answers:     answers,
				SubmittedAt: at,
			}},
			BestScore:     copyScore(score),
			CoinsEarned:   copyScore(score),
			MaxScore:      ex.MaxScore,
			LastAttemptAt: at,
		})
		c.recomputePercent()
		return &c.Submissions[len(c.Submissions)-1], true
	}

	sub.Attempts = append(sub.Attempts, Attempt{
		Number:      len(sub.Attempts) + 1,
		Score:       score,
		Answers:     answers,
		SubmittedAt: at,
	})
	sub.LastAttemptAt = at
	if score != nil && (sub.BestScore == nil || *score > *sub.BestScore) {
		sub.BestScore = copyScore(score)
	}
	return sub, false
}

// ApplyTeacherScore overwrites the latest attempt's score and raises the
// best score if the new score tops it. It returns the point delta that is
// still owed: the part of the score not yet converted to coins.
func (s *ExerciseSubmission) ApplyTeacherScore(score int) int {
	if len(s.Attempts) > 0 {
		s.Attempts[len(s.Attempts)-1].Score = &score
	}
	if s.BestScore == nil || score > *s.BestScore {
		s.BestScore = &score
	}

	owed := score
	if s.CoinsEarned != nil {
		owed = score - *s.CoinsEarned
	}
	if owed > 0 {
		s.CoinsEarned = &score
		return owed
	}
	return 0
}

// recomputePercent derives the completion percentage from the current counts
// against the totals captured at creation. Not capped at 100.
func (c *ClassProgressInfo) recomputePercent() {
	total := c.NumLessons + c.NumExercises
	if total == 0 {
		c.ProgressPercent = 0
		return
	}
	done := len(c.LessonsCompleted) + len(c.Submissions)
	c.ProgressPercent = float64(done) / float64(total) * 100
}

func copyScore(s *int) *int {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
