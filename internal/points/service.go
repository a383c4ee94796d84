// Package points implements the point economy: every balance change goes
// through here, and every change writes exactly one immutable ledger entry.
package points

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

// EventPublisher receives a copy of every ledger entry for downstream
// notification fan-out. Publishing is best-effort; the ledger write is the
// source of truth.
type EventPublisher interface {
	PublishPoints(ctx context.Context, entry domain.PointsLogEntry) error
}

// Service moves point balances in lockstep with the audit ledger.
type Service struct {
	learners domain.LearnerStore
	ledger   domain.LedgerStore
	events   EventPublisher
}

// NewService creates a points service.
func NewService(learners domain.LearnerStore, ledger domain.LedgerStore) *Service {
	return &Service{learners: learners, ledger: ledger}
}

// SetPublisher connects an event publisher for ledger-entry fan-out.
func (s *Service) SetPublisher(p EventPublisher) {
	s.events = p
}

// Apply writes the ledger entry and moves the in-memory balance of an
// already loaded learner. The caller is responsible for saving the learner;
// this lets a progress operation batch several balance moves into one
// document write. The ledger append happens first so a failure leaves the
// balance untouched.
func (s *Service) Apply(ctx context.Context, learner *domain.LearnerProfile, entry domain.PointsLogEntry) error {
	if entry.Amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if entry.Direction == domain.DirectionDebit && learner.Game.Points < entry.Amount {
		return domain.ErrInsufficientPoints
	}

	if err := s.ledger.Append(ctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	learner.Game.Points += entry.Signed()

	if s.events != nil {
		if err := s.events.PublishPoints(ctx, entry); err != nil {
			slog.Warn("points event publish failed",
				"learner_id", entry.LearnerID,
				"category", entry.Category,
				"error", err)
		}
	}
	return nil
}

// Credit loads the learner, credits the amount with a ledger entry, and
// saves the learner document.
func (s *Service) Credit(ctx context.Context, learnerID, classroomID uuid.UUID, amount int, cat domain.Category, detail string, granter *uuid.UUID) (*domain.LearnerProfile, error) {
	return s.move(ctx, learnerID, classroomID, domain.DirectionCredit, amount, cat, detail, granter)
}

// Debit loads the learner, debits the amount with a ledger entry, and saves
// the learner document.
func (s *Service) Debit(ctx context.Context, learnerID, classroomID uuid.UUID, amount int, cat domain.Category, detail string, granter *uuid.UUID) (*domain.LearnerProfile, error) {
	return s.move(ctx, learnerID, classroomID, domain.DirectionDebit, amount, cat, detail, granter)
}

// Award credits manually granted points from a teacher.
func (s *Service) Award(ctx context.Context, learnerID, classroomID, granterID uuid.UUID, amount int, detail string) (*domain.LearnerProfile, error) {
	return s.Credit(ctx, learnerID, classroomID, amount, domain.CategoryExtraAward, detail, &granterID)
}

// Spend debits points for an in-game purchase.
func (s *Service) Spend(ctx context.Context, learnerID, classroomID uuid.UUID, amount int, detail string) (*domain.LearnerProfile, error) {
	return s.Debit(ctx, learnerID, classroomID, amount, domain.CategoryGameSpending, detail, nil)
}

func (s *Service) move(ctx context.Context, learnerID, classroomID uuid.UUID, dir domain.Direction, amount int, cat domain.Category, detail string, granter *uuid.UUID) (*domain.LearnerProfile, error) {
	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	entry := domain.NewLogEntry(learnerID, classroomID, dir, amount, cat, detail, granter)
	if err := s.Apply(ctx, learner, entry); err != nil {
		return nil, err
	}

	if err := s.learners.Save(ctx, learner); err != nil {
		return nil, fmt.Errorf("save learner: %w", err)
	}
	return learner, nil
}

// Drift is the result of a balance audit.
type Drift struct {
	LearnerID uuid.UUID
	Balance   int // cached balance on the learner document
	LedgerSum int // signed sum of all ledger entries
	Delta     int // Balance - LedgerSum; non-zero means a defect
}

// Reconcile compares the cached balance against the ledger sum. A non-zero
// delta means a balance write and its ledger entry got separated.
func (s *Service) Reconcile(ctx context.Context, learnerID uuid.UUID) (Drift, error) {
	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return Drift{}, err
	}
	entries, err := s.ledger.ListByLearner(ctx, learnerID)
	if err != nil {
		return Drift{}, fmt.Errorf("list ledger entries: %w", err)
	}

	sum := 0
	for _, e := range entries {
		sum += e.Signed()
	}

	d := Drift{
		LearnerID: learnerID,
		Balance:   learner.Game.Points,
		LedgerSum: sum,
		Delta:     learner.Game.Points - sum,
	}
	if d.Delta != 0 {
		slog.Warn("points balance drift detected",
			"learner_id", learnerID,
			"balance", d.Balance,
			"ledger_sum", d.LedgerSum)
	}
	return d, nil
}
