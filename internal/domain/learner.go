package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearnerProfile is the aggregate root for everything this core tracks about
// one learner: the game economy projection, current recommendations, and the
// per-classroom unit progress ledger. It is owned and mutated exclusively by
// the progress and recommendation services.
type LearnerProfile struct {
	ID             uuid.UUID
	Name           string
	PreferredTheme string // thematic taste used for variant selection
	Game           GameProfile
	Recommendations Recommendations
	Redeemed        RedeemedSet
	Progress        []ClassProgressInfo
	NewSubmissions  []SubmissionMarker
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GameProfile is the learner's in-game state. Points is a cached projection
// of the points ledger sum and must only move together with a ledger write.
type GameProfile struct {
	Points      int
	PlayMinutes int // remaining play-time allowance
	Attributes  Attributes
}

// Attributes are the RPG stats attached to the game avatar.
type Attributes struct {
	Strength int
	Wisdom   int
	Charisma int
}

// Recommendations holds the current remediation suggestions. Both lists are
// bounded and fully replaced on every refresh, never merged.
type Recommendations struct {
	Lessons   []RecommendationEntry
	Exercises []RecommendationEntry
}

// RecommendationEntry is one suggested piece of content and the bonus the
// learner earns by completing it.
type RecommendationEntry struct {
	ContentID   string
	DisplayName string
	BonusPoints int
}

// RedeemedSet records content ids whose recommendation bonus has already
// been paid, guaranteeing at-most-once payment per id.
type RedeemedSet struct {
	Lessons   []string
	Exercises []string
}

// SubmissionMarker flags that the learner has a fresh exercise submission
// awaiting teacher attention in a classroom.
type SubmissionMarker struct {
	ExerciseID  string
	ClassroomID uuid.UUID
}

// NewLearnerProfile creates an empty profile for a freshly registered learner.
func NewLearnerProfile(name string) *LearnerProfile {
	now := time.Now()
	return &LearnerProfile{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProgressFor returns the progress record for a (classroom, unit) pair.
func (p *LearnerProfile) ProgressFor(classroomID uuid.UUID, unitID string) *ClassProgressInfo {
	for i := range p.Progress {
		if p.Progress[i].ClassroomID == classroomID && p.Progress[i].UnitID == unitID {
			return &p.Progress[i]
		}
	}
	return nil
}

// SubmissionByID finds a submission across all progress records.
func (p *LearnerProfile) SubmissionByID(submissionID uuid.UUID) (*ClassProgressInfo, *ExerciseSubmission) {
	for i := range p.Progress {
		for j := range p.Progress[i].Submissions {
			if p.Progress[i].Submissions[j].ID == submissionID {
				return &p.Progress[i], &p.Progress[i].Submissions[j]
			}
		}
	}
	return nil, nil
}

// MarkNewSubmission records a "has new submission" marker for the exercise in
// the classroom. Adding the same marker twice is a no-op.
func (p *LearnerProfile) MarkNewSubmission(exerciseID string, classroomID uuid.UUID) {
	for _, m := range p.NewSubmissions {
		if m.ExerciseID == exerciseID && m.ClassroomID == classroomID {
			return
		}
	}
	p.NewSubmissions = append(p.NewSubmissions, SubmissionMarker{
		ExerciseID:  exerciseID,
		ClassroomID: classroomID,
	})
}

// HasRedeemed reports whether the bonus for the content id has been paid.
func (r *RedeemedSet) HasRedeemed(kind ContentKind, contentID string) bool {
	for _, id := range r.list(kind) {
		if id == contentID {
			return true
		}
	}
	return false
}

// MarkRedeemed records that the bonus for the content id has been paid.
func (r *RedeemedSet) MarkRedeemed(kind ContentKind, contentID string) {
	if r.HasRedeemed(kind, contentID) {
		return
	}
	switch kind {
	case ContentLesson:
		r.Lessons = append(r.Lessons, contentID)
	case ContentExercise:
		r.Exercises = append(r.Exercises, contentID)
	}
}

func (r *RedeemedSet) list(kind ContentKind) []string {
	if kind == ContentLesson {
		return r.Lessons
	}
	return r.Exercises
}

// ContentKind distinguishes lesson and exercise content in shared code paths.
type ContentKind string

const (
	ContentLesson   ContentKind = "lesson"
	ContentExercise ContentKind = "exercise"
)

// EntryFor returns the current recommendation entry for the content id.
func (r *Recommendations) EntryFor(kind ContentKind, contentID string) (RecommendationEntry, bool) {
	var list []RecommendationEntry
	if kind == ContentLesson {
		list = r.Lessons
	} else {
		list = r.Exercises
	}
	for _, e := range list {
		if e.ContentID == contentID {
			return e, true
		}
	}
	return RecommendationEntry{}, false
}
