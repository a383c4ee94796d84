package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

// LedgerRepository implements domain.LedgerStore on PostgreSQL. The table
// is append-only; there is no update or delete path.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts one ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry domain.PointsLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO points_ledger (id, learner_id, classroom_id, granter_id,
			direction, amount, category, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.LearnerID, entry.ClassroomID, ptrToNullUUID(entry.GranterID),
		string(entry.Direction), entry.Amount, string(entry.Category), entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ListByLearner returns all entries for a learner in insertion order.
func (r *LedgerRepository) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.PointsLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, learner_id, classroom_id, granter_id,
			direction, amount, category, detail, created_at
		FROM points_ledger
		WHERE learner_id = $1
		ORDER BY created_at, id`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.PointsLogEntry
	for rows.Next() {
		var (
			entry   domain.PointsLogEntry
			granter uuid.NullUUID
		)
		if err := rows.Scan(
			&entry.ID, &entry.LearnerID, &entry.ClassroomID, &granter,
			&entry.Direction, &entry.Amount, &entry.Category, &entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.GranterID = nullUUIDToPtr(granter)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Ensure LedgerRepository implements domain.LedgerStore
var _ domain.LedgerStore = (*LedgerRepository)(nil)
