package domain

import "testing"

func TestUnit_CountedExerciseCount(t *testing.T) {
	unit := testUnit()

	if got := unit.CountedExerciseCount(); got != 2 {
		t.Errorf("CountedExerciseCount() = %d, want 2", got)
	}
}

func TestUnit_IsCountedExercise(t *testing.T) {
	unit := testUnit()

	tests := []struct {
		id   string
		want bool
	}{
		{"e1", true},        // canonical variant
		{"e1-space", false}, // sibling
		{"e2", true},        // not in any group
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := unit.IsCountedExercise(tt.id); got != tt.want {
				t.Errorf("IsCountedExercise(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestUnit_VariantForTheme(t *testing.T) {
	unit := testUnit()

	t.Run("matching theme picks sibling", func(t *testing.T) {
		if got := unit.VariantForTheme("e1", "space"); got != "e1-space" {
			t.Errorf("VariantForTheme = %s, want e1-space", got)
		}
	})

	t.Run("unknown theme falls back to canonical", func(t *testing.T) {
		if got := unit.VariantForTheme("e1-space", "desert"); got != "e1" {
			t.Errorf("VariantForTheme = %s, want e1", got)
		}
	})

	t.Run("ungrouped exercise is returned unchanged", func(t *testing.T) {
		if got := unit.VariantForTheme("e2", "space"); got != "e2" {
			t.Errorf("VariantForTheme = %s, want e2", got)
		}
	})
}

func TestUnit_Lookups(t *testing.T) {
	unit := testUnit()

	if _, ok := unit.LessonByID("l1"); !ok {
		t.Error("LessonByID(l1) not found")
	}
	if _, ok := unit.LessonByID("nope"); ok {
		t.Error("LessonByID(nope) found")
	}
	if ex, ok := unit.ExerciseByID("e2"); !ok || ex.MaxScore != 20 {
		t.Errorf("ExerciseByID(e2) = %+v, %v", ex, ok)
	}
}
