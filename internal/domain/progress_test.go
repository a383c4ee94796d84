package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testUnit() *Unit {
	return &Unit{
		ID:   "french-a1/past-tense",
		Name: "Past Tense",
		Lessons: []Lesson{
			{ID: "l1", Name: "Intro", Tags: []string{"past-tense"}},
			{ID: "l2", Name: "Irregulars", Tags: []string{"past-tense", "irregular-verbs"}},
		},
		Exercises: []Exercise{
			{ID: "e1", Name: "Fill the gaps", Tags: []string{"past-tense"}, MaxScore: 10},
			{ID: "e1-space", Name: "Fill the gaps (space)", Tags: []string{"past-tense"}, MaxScore: 10, Theme: "space"},
			{ID: "e2", Name: "Translate", Tags: []string{"irregular-verbs"}, MaxScore: 20},
		},
		VariantGroups: []VariantGroup{
			{
				BaseID: "e1",
				Variants: []VariantRef{
					{ExerciseID: "e1", Theme: "classic"},
					{ExerciseID: "e1-space", Theme: "space"},
				},
			},
		},
	}
}

func TestNewClassProgressInfo(t *testing.T) {
	classroomID := uuid.New()
	cpi := NewClassProgressInfo(classroomID, testUnit())

	if cpi.NumLessons != 2 {
		t.Errorf("NumLessons = %d, want 2", cpi.NumLessons)
	}
	// e1-space is a non-canonical variant sibling and must not count
	if cpi.NumExercises != 2 {
		t.Errorf("NumExercises = %d, want 2", cpi.NumExercises)
	}
	if cpi.ProgressPercent != 0 {
		t.Errorf("ProgressPercent = %f, want 0", cpi.ProgressPercent)
	}
}

func TestClassProgressInfo_CompleteLesson(t *testing.T) {
	t.Run("first completion updates percent", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), testUnit())

		if !cpi.CompleteLesson("l1") {
			t.Fatal("CompleteLesson() = false, want true")
		}
		if got, want := cpi.ProgressPercent, 25.0; got != want {
			t.Errorf("ProgressPercent = %f, want %f", got, want)
		}
	})

	t.Run("re-completion is idempotent", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), testUnit())
		cpi.CompleteLesson("l1")
		before := cpi.ProgressPercent

		if cpi.CompleteLesson("l1") {
			t.Error("CompleteLesson() = true on repeat, want false")
		}
		if len(cpi.LessonsCompleted) != 1 {
			t.Errorf("LessonsCompleted has %d entries, want 1", len(cpi.LessonsCompleted))
		}
		if cpi.ProgressPercent != before {
			t.Errorf("ProgressPercent changed on repeat: %f -> %f", before, cpi.ProgressPercent)
		}
	})
}

func TestClassProgressInfo_RecordAttempt(t *testing.T) {
	unit := testUnit()
	ex, _ := unit.ExerciseByID("e1")

	t.Run("first attempt creates submission", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), unit)
		score := 8

		sub, created := cpi.RecordAttempt(ex, &score, nil, time.Now())
		if !created {
			t.Fatal("RecordAttempt() created = false, want true")
		}
		if sub.ID == uuid.Nil {
			t.Error("submission should get an id")
		}
		if len(sub.Attempts) != 1 || sub.Attempts[0].Number != 1 {
			t.Errorf("first attempt number = %d, want 1", sub.Attempts[0].Number)
		}
		if sub.BestScore == nil || *sub.BestScore != 8 {
			t.Errorf("BestScore = %v, want 8", sub.BestScore)
		}
		if sub.CoinsEarned == nil || *sub.CoinsEarned != 8 {
			t.Errorf("CoinsEarned = %v, want 8", sub.CoinsEarned)
		}
		if sub.MaxScore != 10 {
			t.Errorf("MaxScore = %d, want 10", sub.MaxScore)
		}
		if got, want := cpi.ProgressPercent, 25.0; got != want {
			t.Errorf("ProgressPercent = %f, want %f", got, want)
		}
	})

	t.Run("unscored first attempt", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), unit)

		sub, _ := cpi.RecordAttempt(ex, nil, nil, time.Now())
		if sub.BestScore != nil {
			t.Errorf("BestScore = %v, want nil", sub.BestScore)
		}
		if sub.CoinsEarned != nil {
			t.Errorf("CoinsEarned = %v, want nil", sub.CoinsEarned)
		}
	})

	t.Run("attempt numbers are contiguous", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), unit)
		scores := []int{3, 7, 5}

		var sub *ExerciseSubmission
		for i := range scores {
			sub, _ = cpi.RecordAttempt(ex, &scores[i], nil, time.Now())
		}
		for i, a := range sub.Attempts {
			if a.Number != i+1 {
				t.Errorf("Attempts[%d].Number = %d, want %d", i, a.Number, i+1)
			}
		}
	})

	t.Run("best score is monotonic", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), unit)
		scores := []int{3, 7, 5}

		var sub *ExerciseSubmission
		for i := range scores {
			sub, _ = cpi.RecordAttempt(ex, &scores[i], nil, time.Now())
		}
		if sub.BestScore == nil || *sub.BestScore != 7 {
			t.Errorf("BestScore = %v, want 7", sub.BestScore)
		}
		if len(sub.Attempts) != 3 {
			t.Errorf("attempts = %d, want 3", len(sub.Attempts))
		}
	})

	t.Run("resubmission does not change percent", func(t *testing.T) {
		cpi := NewClassProgressInfo(uuid.New(), unit)
		score := 4
		cpi.RecordAttempt(ex, &score, nil, time.Now())
		before := cpi.ProgressPercent

		cpi.RecordAttempt(ex, &score, nil, time.Now())
		if cpi.ProgressPercent != before {
			t.Errorf("ProgressPercent changed on resubmission: %f -> %f", before, cpi.ProgressPercent)
		}
	})
}

func TestExerciseSubmission_ApplyTeacherScore(t *testing.T) {
	t.Run("credits only the delta over prior payment", func(t *testing.T) {
		prior := 8
		sub := &ExerciseSubmission{
			ExerciseID:  "e1",
			Attempts:    []Attempt{{Number: 1, Score: &prior}},
			BestScore:   &prior,
			CoinsEarned: &prior,
			MaxScore:    10,
		}

		owed := sub.ApplyTeacherScore(10)
		if owed != 2 {
			t.Errorf("owed = %d, want 2", owed)
		}
		if *sub.CoinsEarned != 10 {
			t.Errorf("CoinsEarned = %d, want 10", *sub.CoinsEarned)
		}
		if *sub.Attempts[0].Score != 10 {
			t.Errorf("latest attempt score = %d, want 10", *sub.Attempts[0].Score)
		}
	})

	t.Run("credits the full score with no prior payment", func(t *testing.T) {
		sub := &ExerciseSubmission{
			ExerciseID: "e1",
			Attempts:   []Attempt{{Number: 1}},
			MaxScore:   10,
		}

		owed := sub.ApplyTeacherScore(6)
		if owed != 6 {
			t.Errorf("owed = %d, want 6", owed)
		}
		if sub.CoinsEarned == nil || *sub.CoinsEarned != 6 {
			t.Errorf("CoinsEarned = %v, want 6", sub.CoinsEarned)
		}
	})

	t.Run("lower score owes nothing and keeps coins", func(t *testing.T) {
		prior := 8
		sub := &ExerciseSubmission{
			ExerciseID:  "e1",
			Attempts:    []Attempt{{Number: 1, Score: &prior}},
			CoinsEarned: &prior,
			MaxScore:    10,
		}

		if owed := sub.ApplyTeacherScore(5); owed != 0 {
			t.Errorf("owed = %d, want 0", owed)
		}
		if *sub.CoinsEarned != 8 {
			t.Errorf("CoinsEarned = %d, want 8", *sub.CoinsEarned)
		}
	})
}

func TestLearnerProfile_SubmissionByID(t *testing.T) {
	unit := testUnit()
	ex, _ := unit.ExerciseByID("e1")
	learner := NewLearnerProfile("amina")
	cpi := NewClassProgressInfo(uuid.New(), unit)
	score := 5
	sub, _ := cpi.RecordAttempt(ex, &score, nil, time.Now())
	subID := sub.ID
	learner.Progress = append(learner.Progress, cpi)

	t.Run("found", func(t *testing.T) {
		gotCPI, gotSub := learner.SubmissionByID(subID)
		if gotCPI == nil || gotSub == nil {
			t.Fatal("SubmissionByID() returned nil")
		}
		if gotSub.ExerciseID != "e1" {
			t.Errorf("ExerciseID = %s, want e1", gotSub.ExerciseID)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		gotCPI, gotSub := learner.SubmissionByID(uuid.New())
		if gotCPI != nil || gotSub != nil {
			t.Error("SubmissionByID() should return nil for unknown id")
		}
	})
}
