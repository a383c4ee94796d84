package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

// LearnerStore implements domain.LearnerStore backed by SQLite.
type LearnerStore struct {
	db *DB
}

// NewLearnerStore creates a new SQLite-backed learner store.
func NewLearnerStore(db *DB) *LearnerStore {
	return &LearnerStore{db: db}
}

// Get retrieves a learner document by id.
func (s *LearnerStore) Get(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, preferred_theme, points, play_minutes,
			strength, wisdom, charisma,
			recommendations, redeemed_lessons, redeemed_exercises,
			progress, new_submissions, created_at, updated_at
		FROM learners WHERE id = ?`, id.String())

	var (
		learner           domain.LearnerProfile
		idStr             string
		recommendations   sql.NullString
		redeemedLessons   string
		redeemedExercises string
		progress          string
		newSubmissions    sql.NullString
	)
	err := row.Scan(
		&idStr, &learner.Name, &learner.PreferredTheme,
		&learner.Game.Points, &learner.Game.PlayMinutes,
		&learner.Game.Attributes.Strength, &learner.Game.Attributes.Wisdom,
		&learner.Game.Attributes.Charisma,
		&recommendations, &redeemedLessons, &redeemedExercises,
		&progress, &newSubmissions,
		&learner.CreatedAt, &learner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("get learner: %w", err)
	}

	learner.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse learner id: %w", err)
	}
	if recommendations.Valid {
		if err := json.Unmarshal([]byte(recommendations.String), &learner.Recommendations); err != nil {
			return nil, fmt.Errorf("unmarshal recommendations: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(redeemedLessons), &learner.Redeemed.Lessons); err != nil {
		return nil, fmt.Errorf("unmarshal redeemed_lessons: %w", err)
	}
	if err := json.Unmarshal([]byte(redeemedExercises), &learner.Redeemed.Exercises); err != nil {
		return nil, fmt.Errorf("unmarshal redeemed_exercises: %w", err)
	}
	if err := json.Unmarshal([]byte(progress), &learner.Progress); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	if newSubmissions.Valid {
		if err := json.Unmarshal([]byte(newSubmissions.String), &learner.NewSubmissions); err != nil {
			return nil, fmt.Errorf("unmarshal new_submissions: %w", err)
		}
	}

	return &learner, nil
}

// Save persists a learner document (insert or update).
func (s *LearnerStore) Save(ctx context.Context, learner *domain.LearnerProfile) error {
	recommendations, err := marshalNullable(learner.Recommendations,
		len(learner.Recommendations.Lessons) == 0 && len(learner.Recommendations.Exercises) == 0)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	redeemedLessons, err := marshalList(learner.Redeemed.Lessons)
	if err != nil {
		return fmt.Errorf("marshal redeemed_lessons: %w", err)
	}
	redeemedExercises, err := marshalList(learner.Redeemed.Exercises)
	if err != nil {
		return fmt.Errorf("marshal redeemed_exercises: %w", err)
	}
	progress, err := marshalList(learner.Progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	newSubmissions, err := marshalNullable(learner.NewSubmissions, len(learner.NewSubmissions) == 0)
	if err != nil {
		return fmt.Errorf("marshal new_submissions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learners (id, name, preferred_theme, points, play_minutes,
			strength, wisdom, charisma,
			recommendations, redeemed_lessons, redeemed_exercises,
			progress, new_submissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			preferred_theme=excluded.preferred_theme,
			points=excluded.points,
			play_minutes=excluded.play_minutes,
			strength=excluded.strength,
			wisdom=excluded.wisdom,
			charisma=excluded.charisma,
			recommendations=excluded.recommendations,
			redeemed_lessons=excluded.redeemed_lessons,
			redeemed_exercises=excluded.redeemed_exercises,
			progress=excluded.progress,
			new_submissions=excluded.new_submissions,
			updated_at=excluded.updated_at`,
		learner.ID.String(), learner.Name, learner.PreferredTheme,
		learner.Game.Points, learner.Game.PlayMinutes,
		learner.Game.Attributes.Strength, learner.Game.Attributes.Wisdom,
		learner.Game.Attributes.Charisma,
		recommendations, redeemedLessons, redeemedExercises,
		progress, newSubmissions,
		learner.CreatedAt, learner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save learner: %w", err)
	}
	return nil
}

// marshalList serializes a slice field, storing nil as an empty JSON list.
func marshalList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

// marshalNullable serializes an optional document, storing empty as NULL.
func marshalNullable(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// Ensure LearnerStore implements domain.LearnerStore
var _ domain.LearnerStore = (*LearnerStore)(nil)
