package domain

import (
	"context"

	"github.com/google/uuid"
)

// LearnerStore persists learner profiles. The learner document is the only
// aggregate this core writes; implementations provide atomic whole-document
// saves.
type LearnerStore interface {
	Get(ctx context.Context, id uuid.UUID) (*LearnerProfile, error)
	Save(ctx context.Context, learner *LearnerProfile) error
}

// LedgerStore persists the append-only points audit trail.
type LedgerStore interface {
	Append(ctx context.Context, entry PointsLogEntry) error
	ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]PointsLogEntry, error)
}

// ClassroomStore reads classrooms and writes the new-submission flags.
type ClassroomStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Classroom, error)
	Save(ctx context.Context, classroom *Classroom) error
}

// Catalog is the read-only view of curriculum content this core consumes.
// GetExercises is batched so history re-aggregation issues one lookup for
// all distinct exercise ids instead of one per submission.
type Catalog interface {
	GetUnit(ctx context.Context, unitID string) (*Unit, error)
	GetExercises(ctx context.Context, ids []string) (map[string]Exercise, error)
	ListUnits(ctx context.Context) ([]*Unit, error)
}
