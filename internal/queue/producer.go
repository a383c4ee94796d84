package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darasahq/darasa/internal/domain"
)

// Producer publishes progress events to the queue.
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishSubmission publishes a submission event.
func (p *Producer) PublishSubmission(ctx context.Context, event SubmissionEvent) error {
	if err := p.conn.PublishJSON(ctx, SubmissionQueueName, event); err != nil {
		return fmt.Errorf("failed to publish submission event: %w", err)
	}

	slog.Info("published submission event",
		"submission_id", event.SubmissionID,
		"learner_id", event.LearnerID,
		"classroom_id", event.ClassroomID,
		"exercise_id", event.ExerciseID,
		"attempt", event.AttemptNumber,
	)

	return nil
}

// PublishPoints publishes a points event mirroring one ledger entry.
// Satisfies the points service's EventPublisher.
func (p *Producer) PublishPoints(ctx context.Context, entry domain.PointsLogEntry) error {
	event := PointsEvent{
		EntryID:     entry.ID,
		LearnerID:   entry.LearnerID,
		ClassroomID: entry.ClassroomID,
		Direction:   string(entry.Direction),
		Amount:      entry.Amount,
		Category:    string(entry.Category),
		CreatedAt:   entry.CreatedAt,
	}
	if err := p.conn.PublishJSON(ctx, PointsQueueName, event); err != nil {
		return fmt.Errorf("failed to publish points event: %w", err)
	}

	slog.Info("published points event",
		"entry_id", entry.ID,
		"learner_id", entry.LearnerID,
		"category", entry.Category,
		"amount", entry.Amount,
	)

	return nil
}
