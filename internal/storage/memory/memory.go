// Package memory provides in-memory store implementations. They back the
// test suites and the throwaway local mode where no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

// LearnerStore is an in-memory domain.LearnerStore.
type LearnerStore struct {
	mu       sync.RWMutex
	learners map[uuid.UUID]domain.LearnerProfile
}

// NewLearnerStore creates an empty learner store.
func NewLearnerStore() *LearnerStore {
	return &LearnerStore{learners: make(map[uuid.UUID]domain.LearnerProfile)}
}

// Get returns a copy of the stored learner.
func (s *LearnerStore) Get(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	learner, ok := s.learners[id]
	if !ok {
		return nil, domain.ErrLearnerNotFound
	}
	return &learner, nil
}

// Save stores the learner, replacing any previous document.
func (s *LearnerStore) Save(ctx context.Context, learner *domain.LearnerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learners[learner.ID] = *learner
	return nil
}

// LedgerStore is an in-memory domain.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []domain.PointsLogEntry
}

// NewLedgerStore creates an empty ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// Append adds an entry to the ledger.
func (s *LedgerStore) Append(ctx context.Context, entry domain.PointsLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListByLearner returns all entries for a learner in append order.
func (s *LedgerStore) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.PointsLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PointsLogEntry
	for _, e := range s.entries {
		if e.LearnerID == learnerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ClassroomStore is an in-memory domain.ClassroomStore.
type ClassroomStore struct {
	mu         sync.RWMutex
	classrooms map[uuid.UUID]domain.Classroom
}

// NewClassroomStore creates an empty classroom store.
func NewClassroomStore() *ClassroomStore {
	return &ClassroomStore{classrooms: make(map[uuid.UUID]domain.Classroom)}
}

// Get returns a copy of the stored classroom.
func (s *ClassroomStore) Get(ctx context.Context, id uuid.UUID) (*domain.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	classroom, ok := s.classrooms[id]
	if !ok {
		return nil, domain.ErrClassroomNotFound
	}
	return &classroom, nil
}

// Save stores the classroom, replacing any previous document.
func (s *ClassroomStore) Save(ctx context.Context, classroom *domain.Classroom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classrooms[classroom.ID] = *classroom
	return nil
}

var (
	_ domain.LearnerStore   = (*LearnerStore)(nil)
	_ domain.LedgerStore    = (*LedgerStore)(nil)
	_ domain.ClassroomStore = (*ClassroomStore)(nil)
)
