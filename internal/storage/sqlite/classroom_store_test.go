package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

func TestClassroomStore_Save_Get(t *testing.T) {
	db := openTestDB(t)
	store := NewClassroomStore(db)
	ctx := context.Background()

	learnerID := uuid.New()
	classroom := &domain.Classroom{
		ID:        uuid.New(),
		Name:      "French A1",
		TeacherID: uuid.New(),
		Members:   []uuid.UUID{learnerID, uuid.New()},
	}
	if err := store.Save(ctx, classroom); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Get(ctx, classroom.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.Name != "French A1" {
		t.Errorf("Name = %q; want French A1", loaded.Name)
	}
	if !loaded.HasMember(learnerID) {
		t.Error("member lost")
	}
	if len(loaded.NewSubmissionFlags) != 0 {
		t.Errorf("NewSubmissionFlags = %+v; want empty", loaded.NewSubmissionFlags)
	}

	// Flag a submission and save again.
	if !loaded.FlagNewSubmission(learnerID, "e1") {
		t.Fatal("FlagNewSubmission() = false; want true")
	}
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("Save() update error = %v", err)
	}

	loaded, err = store.Get(ctx, classroom.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(loaded.NewSubmissionFlags) != 1 {
		t.Fatalf("NewSubmissionFlags = %+v; want one", loaded.NewSubmissionFlags)
	}
	if loaded.NewSubmissionFlags[0].LearnerID != learnerID || loaded.NewSubmissionFlags[0].ExerciseID != "e1" {
		t.Errorf("flag = %+v; want learner/e1", loaded.NewSubmissionFlags[0])
	}
}

func TestClassroomStore_Get_NotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewClassroomStore(db)

	_, err := store.Get(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrClassroomNotFound) {
		t.Errorf("Get() error = %v; want ErrClassroomNotFound", err)
	}
}
