// Package progress implements the per-learner progress state machine:
// lesson completions, exercise submissions, and teacher scoring, with the
// point awards and recommendation refresh each of them triggers.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
	"github.com/darasahq/darasa/internal/points"
	"github.com/darasahq/darasa/internal/queue"
	"github.com/darasahq/darasa/internal/recommend"
)

// SubmissionNotifier publishes submission events for the notification
// fan-out. Publishing is best-effort and never fails the operation.
type SubmissionNotifier interface {
	PublishSubmission(ctx context.Context, event queue.SubmissionEvent) error
}

// Attempt is one validated submission payload.
type Attempt struct {
	Score   *int            `json:"score,omitempty" validate:"omitempty,gte=0"`
	Answers json.RawMessage `json:"answers"`
}

// Service applies progress events to learner documents. All mutations for
// one learner are serialized through a per-learner lock; operations on
// different learners run independently.
type Service struct {
	learners   domain.LearnerStore
	classrooms domain.ClassroomStore
	catalog    domain.Catalog
	points     *points.Service
	engine     *recommend.Engine
	notifier   SubmissionNotifier
	locks      *learnerLocks
}

// NewService creates a progress service.
func NewService(
	learners domain.LearnerStore,
	classrooms domain.ClassroomStore,
	catalog domain.Catalog,
	pts *points.Service,
	engine *recommend.Engine,
) *Service {
	return &Service{
		learners:   learners,
		classrooms: classrooms,
		catalog:    catalog,
		points:     pts,
		engine:     engine,
		locks:      newLearnerLocks(),
	}
}

// SetNotifier connects a submission event publisher.
func (s *Service) SetNotifier(n SubmissionNotifier) {
	s.notifier = n
}

// CompleteLesson marks a lesson completed for the learner in the classroom's
// unit. Re-completing is idempotent for progress, but the recommendation
// bonus check still runs, so a lesson recommended after its first completion
// can still earn its bonus. Always refreshes recommendations before
// returning.
func (s *Service) CompleteLesson(ctx context.Context, learnerID, classroomID uuid.UUID, unitID, lessonID string) (*domain.LearnerProfile, error) {
	unlock := s.locks.acquire(learnerID)
	defer unlock()

	unit, err := s.checkMembership(ctx, learnerID, classroomID, unitID)
	if err != nil {
		return nil, err
	}
	if _, ok := unit.LessonByID(lessonID); !ok {
		return nil, fmt.Errorf("lesson %s not in unit %s: %w", lessonID, unitID, domain.ErrInvalidReference)
	}

	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	cpi := learner.ProgressFor(classroomID, unitID)
	if cpi == nil {
		learner.Progress = append(learner.Progress, domain.NewClassProgressInfo(classroomID, unit))
		cpi = &learner.Progress[len(learner.Progress)-1]
	}
	changed := cpi.CompleteLesson(lessonID)

	credited, err := s.engine.TryRedeemBonus(ctx, s.points, learner, classroomID, lessonID, domain.ContentLesson)
	if err != nil {
		return nil, err
	}

	if err := s.finish(ctx, learner); err != nil {
		return nil, err
	}

	slog.Info("lesson completed",
		"learner_id", learnerID,
		"classroom_id", classroomID,
		"unit_id", unitID,
		"lesson_id", lessonID,
		"changed", changed,
		"bonus_credited", credited,
		"progress_percent", cpi.ProgressPercent,
	)
	return learner, nil
}

// SubmitExercise records one attempt for an exercise. Every submitted
// positive score is converted to points on the spot, resubmissions
// included. The first submission flags the classroom and marks the learner
// for teacher notification. Always refreshes recommendations before
// returning.
func (s *Service) SubmitExercise(ctx context.Context, learnerID, classroomID uuid.UUID, unitID, exerciseID string, attempt Attempt) (*domain.LearnerProfile, error) {
	unlock := s.locks.acquire(learnerID)
	defer unlock()

	unit, err := s.checkMembership(ctx, learnerID, classroomID, unitID)
	if err != nil {
		return nil, err
	}
	ex, ok := unit.ExerciseByID(exerciseID)
	if !ok {
		return nil, fmt.Errorf("exercise %s not in unit %s: %w", exerciseID, unitID, domain.ErrInvalidReference)
	}

	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	cpi := learner.ProgressFor(classroomID, unitID)
	if cpi == nil {
		learner.Progress = append(learner.Progress, domain.NewClassProgressInfo(classroomID, unit))
		cpi = &learner.Progress[len(learner.Progress)-1]
	}

	now := time.Now()
	sub, created := cpi.RecordAttempt(ex, attempt.Score, attempt.Answers, now)

	if created {
		if err := s.flagClassroom(ctx, classroomID, learnerID, exerciseID); err != nil {
			return nil, err
		}
		learner.MarkNewSubmission(exerciseID, classroomID)
	}

	if attempt.Score != nil && *attempt.Score > 0 {
		entry := domain.NewLogEntry(learnerID, classroomID, domain.DirectionCredit, *attempt.Score,
			domain.CategoryInstantExerciseCredit, fmt.Sprintf("exercise %s attempt %d", exerciseID, len(sub.Attempts)), nil)
		if err := s.points.Apply(ctx, learner, entry); err != nil {
			return nil, err
		}
	}

	if _, err := s.engine.TryRedeemBonus(ctx, s.points, learner, classroomID, exerciseID, domain.ContentExercise); err != nil {
		return nil, err
	}

	if err := s.finish(ctx, learner); err != nil {
		return nil, err
	}

	s.notify(ctx, queue.SubmissionEvent{
		SubmissionID:  sub.ID,
		LearnerID:     learnerID,
		ClassroomID:   classroomID,
		UnitID:        unitID,
		ExerciseID:    exerciseID,
		AttemptNumber: len(sub.Attempts),
		Score:         attempt.Score,
		SubmittedAt:   now,
	})

	slog.Info("exercise submitted",
		"learner_id", learnerID,
		"classroom_id", classroomID,
		"exercise_id", exerciseID,
		"attempt", len(sub.Attempts),
		"created", created,
	)
	return learner, nil
}

// ScoreSubmission applies a teacher's score to a submission. Only the part
// of the score not already paid out is credited, so rescoring from 8 to 10
// pays 2. The latest attempt's recorded score is overwritten either way.
func (s *Service) ScoreSubmission(ctx context.Context, learnerID, submissionID uuid.UUID, score int, graderID *uuid.UUID) (*domain.LearnerProfile, error) {
	unlock := s.locks.acquire(learnerID)
	defer unlock()

	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	cpi, sub := learner.SubmissionByID(submissionID)
	if sub == nil {
		return nil, domain.ErrInvalidSubmissionTarget
	}
	if score > sub.MaxScore {
		return nil, fmt.Errorf("score %d over max %d: %w", score, sub.MaxScore, domain.ErrScoreExceedsMax)
	}

	owed := sub.ApplyTeacherScore(score)
	if owed > 0 {
		entry := domain.NewLogEntry(learnerID, cpi.ClassroomID, domain.DirectionCredit, owed,
			domain.CategoryTeacherRescoring, fmt.Sprintf("rescored exercise %s to %d", sub.ExerciseID, score), graderID)
		if err := s.points.Apply(ctx, learner, entry); err != nil {
			return nil, err
		}
	}

	if err := s.finish(ctx, learner); err != nil {
		return nil, err
	}

	slog.Info("submission scored",
		"learner_id", learnerID,
		"submission_id", submissionID,
		"score", score,
		"credited", owed,
	)
	return learner, nil
}

// RefreshRecommendations recomputes the learner's recommendations without
// any progress change. Exposed for manual recomputation.
func (s *Service) RefreshRecommendations(ctx context.Context, learnerID uuid.UUID) (*domain.LearnerProfile, error) {
	unlock := s.locks.acquire(learnerID)
	defer unlock()

	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if err := s.finish(ctx, learner); err != nil {
		return nil, err
	}
	return learner, nil
}

// checkMembership validates the classroom and unit references and the
// learner's enrollment.
func (s *Service) checkMembership(ctx context.Context, learnerID, classroomID uuid.UUID, unitID string) (*domain.Unit, error) {
	classroom, err := s.classrooms.Get(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if !classroom.HasMember(learnerID) {
		return nil, domain.ErrNotEnrolled
	}

	unit, err := s.catalog.GetUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, domain.ErrUnitNotFound) {
			return nil, fmt.Errorf("unit %s: %w", unitID, domain.ErrInvalidReference)
		}
		return nil, err
	}
	return unit, nil
}

func (s *Service) flagClassroom(ctx context.Context, classroomID, learnerID uuid.UUID, exerciseID string) error {
	classroom, err := s.classrooms.Get(ctx, classroomID)
	if err != nil {
		return err
	}
	if classroom.FlagNewSubmission(learnerID, exerciseID) {
		if err := s.classrooms.Save(ctx, classroom); err != nil {
			return fmt.Errorf("save classroom: %w", err)
		}
	}
	return nil
}

// finish refreshes recommendations and persists the learner document. The
// refresh runs synchronously on every progress-affecting write so the lists
// never go stale relative to the latest attempt.
func (s *Service) finish(ctx context.Context, learner *domain.LearnerProfile) error {
	if err := s.engine.Refresh(ctx, learner); err != nil {
		return err
	}
	learner.UpdatedAt = time.Now()
	if err := s.learners.Save(ctx, learner); err != nil {
		return fmt.Errorf("save learner: %w", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, event queue.SubmissionEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishSubmission(ctx, event); err != nil {
		slog.Warn("submission event publish failed",
			"submission_id", event.SubmissionID,
			"error", err)
	}
}
