package domain

// Unit is a curriculum unit: an ordered set of lessons and exercises.
// Units are read-only from this core's perspective; they are loaded from
// the content catalog and never mutated here.
type Unit struct {
	ID            string // slug: "french-a1/past-tense"
	Name          string
	Lessons       []Lesson
	Exercises     []Exercise
	VariantGroups []VariantGroup
}

// Lesson is a single piece of instructional content within a unit.
type Lesson struct {
	ID   string
	Name string
	Tags []string
}

// Exercise is a gradable task within a unit.
type Exercise struct {
	ID       string
	Name     string
	Tags     []string
	MaxScore int
	// Theme is the presentation flavor of the exercise ("space", "jungle",
	// ...). Variant siblings share tags and max score but differ in theme.
	Theme string
}

// VariantGroup ties an exercise to its thematic siblings. The first-listed
// variant is the canonical member: it is the only one counted toward unit
// totals, and the one shown when the learner has no theme preference.
type VariantGroup struct {
	BaseID   string
	Variants []VariantRef
}

// VariantRef names one member of a variant group.
type VariantRef struct {
	ExerciseID string
	Theme      string
}

// CanonicalID returns the id of the group's canonical variant.
func (g VariantGroup) CanonicalID() string {
	if len(g.Variants) == 0 {
		return g.BaseID
	}
	return g.Variants[0].ExerciseID
}

// Contains reports whether the exercise id is a member of the group.
func (g VariantGroup) Contains(exerciseID string) bool {
	for _, v := range g.Variants {
		if v.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// LessonByID returns the lesson with the given id, if present.
func (u *Unit) LessonByID(id string) (Lesson, bool) {
	for _, l := range u.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return Lesson{}, false
}

// ExerciseByID returns the exercise with the given id, if present.
func (u *Unit) ExerciseByID(id string) (Exercise, bool) {
	for _, e := range u.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return Exercise{}, false
}

// CountedExerciseCount returns the number of exercises that count toward
// unit totals: exercises outside any variant group, plus one canonical
// member per group.
func (u *Unit) CountedExerciseCount() int {
	count := 0
	for _, e := range u.Exercises {
		if u.IsCountedExercise(e.ID) {
			count++
		}
	}
	return count
}

// IsCountedExercise reports whether the exercise counts toward unit totals.
// Non-canonical variant siblings do not count; everything else does.
func (u *Unit) IsCountedExercise(exerciseID string) bool {
	for _, g := range u.VariantGroups {
		if g.Contains(exerciseID) {
			return g.CanonicalID() == exerciseID
		}
	}
	return true
}

// VariantForTheme resolves which member of the exercise's variant group
// should be shown to a learner with the given theme preference. Falls back
// to the canonical variant when no sibling matches, and to the exercise
// itself when it belongs to no group.
func (u *Unit) VariantForTheme(exerciseID, theme string) string {
	for _, g := range u.VariantGroups {
		if !g.Contains(exerciseID) {
			continue
		}
		for _, v := range g.Variants {
			if v.Theme == theme {
				return v.ExerciseID
			}
		}
		return g.CanonicalID()
	}
	return exerciseID
}
