package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/darasahq/darasa/internal/domain"
)

// LearnerRepository implements domain.LearnerStore on PostgreSQL.
type LearnerRepository struct {
	db DBTX
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(db DBTX) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// Get retrieves a learner document by id.
func (r *LearnerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, preferred_theme, points, play_minutes,
			strength, wisdom, charisma,
			recommendations, redeemed_lessons, redeemed_exercises,
			progress, new_submissions, created_at, updated_at
		FROM learners WHERE id = $1`, id)

	var (
		learner         domain.LearnerProfile
		recommendations pqtype.NullRawMessage
		progress        []byte
		newSubmissions  pqtype.NullRawMessage
	)
	err := row.Scan(
		&learner.ID, &learner.Name, &learner.PreferredTheme,
		&learner.Game.Points, &learner.Game.PlayMinutes,
		&learner.Game.Attributes.Strength, &learner.Game.Attributes.Wisdom,
		&learner.Game.Attributes.Charisma,
		&recommendations,
		pq.Array(&learner.Redeemed.Lessons), pq.Array(&learner.Redeemed.Exercises),
		&progress, &newSubmissions,
		&learner.CreatedAt, &learner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("get learner: %w", err)
	}

	if err := unmarshalDoc(recommendations, &learner.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &learner.Progress); err != nil {
			return nil, fmt.Errorf("unmarshal progress: %w", err)
		}
	}
	if err := unmarshalDoc(newSubmissions, &learner.NewSubmissions); err != nil {
		return nil, fmt.Errorf("unmarshal new_submissions: %w", err)
	}

	return &learner, nil
}

// Save persists a learner document (insert or update).
func (r *LearnerRepository) Save(ctx context.Context, learner *domain.LearnerProfile) error {
	recommendations, err := marshalDoc(learner.Recommendations,
		len(learner.Recommendations.Lessons) == 0 && len(learner.Recommendations.Exercises) == 0)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	progress, err := marshalDoc(learner.Progress, false)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	newSubmissions, err := marshalDoc(learner.NewSubmissions, len(learner.NewSubmissions) == 0)
	if err != nil {
		return fmt.Errorf("marshal new_submissions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO learners (id, name, preferred_theme, points, play_minutes,
			strength, wisdom, charisma,
			recommendations, redeemed_lessons, redeemed_exercises,
			progress, new_submissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			preferred_theme = excluded.preferred_theme,
			points = excluded.points,
			play_minutes = excluded.play_minutes,
			strength = excluded.strength,
			wisdom = excluded.wisdom,
			charisma = excluded.charisma,
			recommendations = excluded.recommendations,
			redeemed_lessons = excluded.redeemed_lessons,
			redeemed_exercises = excluded.redeemed_exercises,
			progress = excluded.progress,
			new_submissions = excluded.new_submissions,
			updated_at = excluded.updated_at`,
		learner.ID, learner.Name, learner.PreferredTheme,
		learner.Game.Points, learner.Game.PlayMinutes,
		learner.Game.Attributes.Strength, learner.Game.Attributes.Wisdom,
		learner.Game.Attributes.Charisma,
		recommendations,
		textArray(learner.Redeemed.Lessons), textArray(learner.Redeemed.Exercises),
		progress, newSubmissions,
		learner.CreatedAt, learner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save learner: %w", err)
	}
	return nil
}

// Ensure LearnerRepository implements domain.LearnerStore
var _ domain.LearnerStore = (*LearnerRepository)(nil)
