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

// ClassroomStore implements domain.ClassroomStore backed by SQLite.
type ClassroomStore struct {
	db *DB
}

// NewClassroomStore creates a new SQLite-backed classroom store.
func NewClassroomStore(db *DB) *ClassroomStore {
	return &ClassroomStore{db: db}
}

// Get retrieves a classroom by id.
func (s *ClassroomStore) Get(ctx context.Context, id uuid.UUID) (*domain.Classroom, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, teacher_id, members, new_submission_flags, created_at, updated_at
		FROM classrooms WHERE id = ?`, id.String())

	var (
		classroom  domain.Classroom
		idStr      string
		teacherStr string
		members    string
		flags      sql.NullString
	)
	err := row.Scan(
		&idStr, &classroom.Name, &teacherStr,
		&members, &flags,
		&classroom.CreatedAt, &classroom.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClassroomNotFound
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}

	if classroom.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse classroom id: %w", err)
	}
	if classroom.TeacherID, err = uuid.Parse(teacherStr); err != nil {
		return nil, fmt.Errorf("parse teacher id: %w", err)
	}
	if err := json.Unmarshal([]byte(members), &classroom.Members); err != nil {
		return nil, fmt.Errorf("unmarshal members: %w", err)
	}
	if flags.Valid {
		if err := json.Unmarshal([]byte(flags.String), &classroom.NewSubmissionFlags); err != nil {
			return nil, fmt.Errorf("unmarshal new_submission_flags: %w", err)
		}
	}

	return &classroom, nil
}

// Save persists a classroom (insert or update).
func (s *ClassroomStore) Save(ctx context.Context, classroom *domain.Classroom) error {
	members, err := marshalList(classroom.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	flags, err := marshalNullable(classroom.NewSubmissionFlags, len(classroom.NewSubmissionFlags) == 0)
	if err != nil {
		return fmt.Errorf("marshal new_submission_flags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classrooms (id, name, teacher_id, members, new_submission_flags,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			teacher_id=excluded.teacher_id,
			members=excluded.members,
			new_submission_flags=excluded.new_submission_flags,
			updated_at=excluded.updated_at`,
		classroom.ID.String(), classroom.Name, classroom.TeacherID.String(),
		members, flags,
		classroom.CreatedAt, classroom.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save classroom: %w", err)
	}
	return nil
}

// Ensure ClassroomStore implements domain.ClassroomStore
var _ domain.ClassroomStore = (*ClassroomStore)(nil)
