package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

// LedgerStore implements domain.LedgerStore backed by SQLite. Entries are
// append-only.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new SQLite-backed ledger store.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Append inserts one ledger entry.
func (s *LedgerStore) Append(ctx context.Context, entry domain.PointsLogEntry) error {
	var granter sql.NullString
	if entry.GranterID != nil {
		granter = sql.NullString{String: entry.GranterID.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO points_ledger (id, learner_id, classroom_id, granter_id,
			direction, amount, category, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.LearnerID.String(), entry.ClassroomID.String(), granter,
		string(entry.Direction), entry.Amount, string(entry.Category), entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ListByLearner returns all entries for a learner in insertion order.
func (s *LedgerStore) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.PointsLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, learner_id, classroom_id, granter_id,
			direction, amount, category, detail, created_at
		FROM points_ledger
		WHERE learner_id = ?
		ORDER BY created_at, id`, learnerID.String())
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.PointsLogEntry
	for rows.Next() {
		var (
			entry             domain.PointsLogEntry
			idStr             string
			learnerStr        string
			classroomStr      string
			granter           sql.NullString
		)
		if err := rows.Scan(
			&idStr, &learnerStr, &classroomStr, &granter,
			&entry.Direction, &entry.Amount, &entry.Category, &entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		if entry.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse entry id: %w", err)
		}
		if entry.LearnerID, err = uuid.Parse(learnerStr); err != nil {
			return nil, fmt.Errorf("parse learner id: %w", err)
		}
		if entry.ClassroomID, err = uuid.Parse(classroomStr); err != nil {
			return nil, fmt.Errorf("parse classroom id: %w", err)
		}
		if granter.Valid {
			id, err := uuid.Parse(granter.String)
			if err != nil {
				return nil, fmt.Errorf("parse granter id: %w", err)
			}
			entry.GranterID = &id
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Ensure LedgerStore implements domain.LedgerStore
var _ domain.LedgerStore = (*LedgerStore)(nil)
