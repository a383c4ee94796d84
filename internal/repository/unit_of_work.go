package repository

import (
	"context"
	"database/sql"

	"github.com/darasahq/darasa/internal/domain"
)

// Stores bundles the PostgreSQL repositories over one connection or
// transaction. Begin returns a transactional view whose repositories all
// share the same sql.Tx.
type Stores struct {
	db *sql.DB
	tx *sql.Tx

	learners   *LearnerRepository
	ledger     *LedgerRepository
	classrooms *ClassroomRepository
}

// NewStores creates repositories over a database connection.
func NewStores(db *sql.DB) *Stores {
	return &Stores{db: db}
}

func (s *Stores) dbtx() DBTX {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin starts a transactional unit of work.
func (s *Stores) Begin(ctx context.Context) (*Stores, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Stores{db: s.db, tx: tx}, nil
}

// Commit commits the transaction, if any.
func (s *Stores) Commit() error {
	if s.tx == nil {
		return nil
	}
	return s.tx.Commit()
}

// Rollback rolls back the transaction, if any.
func (s *Stores) Rollback() error {
	if s.tx == nil {
		return nil
	}
	return s.tx.Rollback()
}

// Learners returns the learner repository.
func (s *Stores) Learners() domain.LearnerStore {
	if s.learners == nil {
		s.learners = NewLearnerRepository(s.dbtx())
	}
	return s.learners
}

// Ledger returns the points ledger repository.
func (s *Stores) Ledger() domain.LedgerStore {
	if s.ledger == nil {
		s.ledger = NewLedgerRepository(s.dbtx())
	}
	return s.ledger
}

// Classrooms returns the classroom repository.
func (s *Stores) Classrooms() domain.ClassroomStore {
	if s.classrooms == nil {
		s.classrooms = NewClassroomRepository(s.dbtx())
	}
	return s.classrooms
}
