package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/darasahq/darasa/internal/domain"
)

// ClassroomRepository implements domain.ClassroomStore on PostgreSQL.
type ClassroomRepository struct {
	db DBTX
}

// NewClassroomRepository creates a new ClassroomRepository.
func NewClassroomRepository(db DBTX) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// Get retrieves a classroom by id.
func (r *ClassroomRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Classroom, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, teacher_id, members, new_submission_flags, created_at, updated_at
		FROM classrooms WHERE id = $1`, id)

	var (
		classroom domain.Classroom
		members   []string
		flags     pqtype.NullRawMessage
	)
	err := row.Scan(
		&classroom.ID, &classroom.Name, &classroom.TeacherID,
		pq.Array(&members), &flags,
		&classroom.CreatedAt, &classroom.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClassroomNotFound
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}

	classroom.Members, err = stringsToUUIDs(members)
	if err != nil {
		return nil, fmt.Errorf("parse members: %w", err)
	}
	if err := unmarshalDoc(flags, &classroom.NewSubmissionFlags); err != nil {
		return nil, fmt.Errorf("unmarshal new_submission_flags: %w", err)
	}

	return &classroom, nil
}

// Save persists a classroom (insert or update).
func (r *ClassroomRepository) Save(ctx context.Context, classroom *domain.Classroom) error {
	flags, err := marshalDoc(classroom.NewSubmissionFlags, len(classroom.NewSubmissionFlags) == 0)
	if err != nil {
		return fmt.Errorf("marshal new_submission_flags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO classrooms (id, name, teacher_id, members, new_submission_flags,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			teacher_id = excluded.teacher_id,
			members = excluded.members,
			new_submission_flags = excluded.new_submission_flags,
			updated_at = excluded.updated_at`,
		classroom.ID, classroom.Name, classroom.TeacherID,
		textArray(uuidsToStrings(classroom.Members)), flags,
		classroom.CreatedAt, classroom.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save classroom: %w", err)
	}
	return nil
}

// Ensure ClassroomRepository implements domain.ClassroomStore
var _ domain.ClassroomStore = (*ClassroomRepository)(nil)
